package view

import (
	"net/url"

	"github.com/terra-clan/approved-premises/internal/form"
	"github.com/terra-clan/approved-premises/internal/services"
)

// RecordPath is the task list of a record
func RecordPath(kind, id string) string {
	return "/" + kind + "/" + url.PathEscape(id)
}

// PagePath is the URL of a page of a record
func PagePath(kind, id, task, page string) string {
	return RecordPath(kind, id) + "/tasks/" + url.PathEscape(task) + "/pages/" + url.PathEscape(page)
}

// TaskLink is a task on the task list. Href is empty when the task cannot be
// opened yet or the record is read only.
type TaskLink struct {
	Name   string
	Title  string
	Href   string
	Status Tag
}

// TaskListSection is a numbered group of tasks
type TaskListSection struct {
	Number int
	Title  string
	Tasks  []TaskLink
}

// TaskList is the task list of a record with its progress
type TaskList struct {
	Sections  []TaskListSection
	Completed int
	Total     int
}

// NewTaskList builds the task list of a record
func NewTaskList(rec *services.Record) (*TaskList, error) {
	sections, err := rec.Journey.TaskList(rec.Context())
	if err != nil {
		return nil, err
	}

	out := &TaskList{}
	for i, s := range sections {
		section := TaskListSection{Number: i + 1, Title: s.Section.Title}
		for _, item := range s.Tasks {
			link := TaskLink{
				Name:   item.Task.Name,
				Title:  item.Task.Title,
				Status: TaskStatusTag(item.Status),
			}
			if rec.Editable && item.Status != form.StatusCannotStart {
				link.Href = PagePath(rec.Kind, rec.ID, item.Task.Name, item.Task.FirstPage())
			}
			if item.Status == form.StatusComplete {
				out.Completed++
			}
			out.Total++
			section.Tasks = append(section.Tasks, link)
		}
		out.Sections = append(out.Sections, section)
	}
	return out, nil
}

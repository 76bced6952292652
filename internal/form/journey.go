package form

import (
	"errors"
	"fmt"
	"slices"
)

// Status is the progress of a task
type Status string

const (
	StatusCannotStart Status = "cannot_start"
	StatusNotStarted  Status = "not_started"
	StatusInProgress  Status = "in_progress"
	StatusComplete    Status = "complete"
)

// AllOtherTasks in depends_on makes a task wait for every task that does not itself use it
const AllOtherTasks = "*"

// JourneyDefinition is the declarative description of a journey
type JourneyDefinition struct {
	Name     string              `yaml:"name" json:"name"`
	Title    string              `yaml:"title" json:"title"`
	Sections []SectionDefinition `yaml:"sections" json:"sections"`
}

// SectionDefinition groups tasks under a heading on the task list
type SectionDefinition struct {
	Name  string           `yaml:"name" json:"name"`
	Title string           `yaml:"title" json:"title"`
	Tasks []TaskDefinition `yaml:"tasks" json:"tasks"`
}

// TaskDefinition is an ordered list of pages. AppliesWhen leaves the task out
// of the journey unless it holds; its conditions must name the task and page
// they read.
type TaskDefinition struct {
	Name        string           `yaml:"name" json:"name"`
	Title       string           `yaml:"title" json:"title"`
	DependsOn   []string         `yaml:"depends_on,omitempty" json:"dependsOn,omitempty"`
	AppliesWhen *Condition       `yaml:"applies_when,omitempty" json:"appliesWhen,omitempty"`
	Pages       []PageDefinition `yaml:"pages" json:"pages"`
}

// Section is a group of tasks
type Section struct {
	Name  string
	Title string
	Tasks []*Task
}

// Task is a named, ordered set of pages
type Task struct {
	Name        string
	Title       string
	Section     string
	Pages       []string
	DependsOn   []string
	AppliesWhen *Condition
}

// FirstPage returns the name of the page a task starts on
func (t *Task) FirstPage() string {
	if len(t.Pages) == 0 {
		return ""
	}
	return t.Pages[0]
}

// Journey is a form made of sections, tasks and pages
type Journey struct {
	Name     string
	Title    string
	Sections []*Section

	tasks     map[string]*Task
	order     []string
	defs      map[string]map[string]*PageDefinition
	factories map[string]map[string]PageFactory
}

// NewJourney builds a journey from its definition
func NewJourney(def JourneyDefinition) (*Journey, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("journey name is required")
	}

	j := &Journey{
		Name:      def.Name,
		Title:     def.Title,
		tasks:     make(map[string]*Task),
		defs:      make(map[string]map[string]*PageDefinition),
		factories: make(map[string]map[string]PageFactory),
	}

	for _, sd := range def.Sections {
		section := &Section{Name: sd.Name, Title: sd.Title}
		for _, td := range sd.Tasks {
			if td.Name == "" {
				return nil, fmt.Errorf("section %s: task name is required", sd.Name)
			}
			if _, dup := j.tasks[td.Name]; dup {
				return nil, fmt.Errorf("duplicate task %q", td.Name)
			}
			if len(td.Pages) == 0 {
				return nil, fmt.Errorf("task %s has no pages", td.Name)
			}

			task := &Task{
				Name:        td.Name,
				Title:       td.Title,
				Section:     sd.Name,
				DependsOn:   append([]string(nil), td.DependsOn...),
				AppliesWhen: td.AppliesWhen,
			}
			defs := make(map[string]*PageDefinition, len(td.Pages))
			for i := range td.Pages {
				pd := td.Pages[i]
				if pd.Name == "" {
					return nil, fmt.Errorf("task %s: page name is required", td.Name)
				}
				if _, dup := defs[pd.Name]; dup {
					return nil, fmt.Errorf("task %s: duplicate page %q", td.Name, pd.Name)
				}
				pd.Fields = append([]Field(nil), pd.Fields...)
				for k := range pd.Fields {
					if err := pd.Fields[k].compile(); err != nil {
						return nil, fmt.Errorf("page %s/%s: %w", td.Name, pd.Name, err)
					}
				}
				defs[pd.Name] = &pd
				task.Pages = append(task.Pages, pd.Name)
			}

			j.tasks[task.Name] = task
			j.order = append(j.order, task.Name)
			j.defs[task.Name] = defs
			section.Tasks = append(section.Tasks, task)
		}
		j.Sections = append(j.Sections, section)
	}

	if err := j.checkDependencies(); err != nil {
		return nil, err
	}
	return j, nil
}

// Task returns the named task
func (j *Journey) Task(name string) (*Task, error) {
	t, ok := j.tasks[name]
	if !ok {
		return nil, &UnknownTaskError{Journey: j.Name, Task: name}
	}
	return t, nil
}

// Tasks returns every task in display order
func (j *Journey) Tasks() []*Task {
	out := make([]*Task, 0, len(j.order))
	for _, name := range j.order {
		out = append(out, j.tasks[name])
	}
	return out
}

// Definition returns the declarative definition of a page, if it has one
func (j *Journey) Definition(task, page string) (*PageDefinition, bool) {
	def, ok := j.defs[task][page]
	return def, ok
}

// RegisterPage replaces the declarative behaviour of a page with factory
func (j *Journey) RegisterPage(task, page string, factory PageFactory) error {
	t, err := j.Task(task)
	if err != nil {
		return err
	}
	if !slices.Contains(t.Pages, page) {
		return &UnknownPageError{Journey: j.Name, Task: task, Page: page}
	}
	if j.factories[task] == nil {
		j.factories[task] = make(map[string]PageFactory)
	}
	j.factories[task][page] = factory
	return nil
}

// Page builds the named page from its answers
func (j *Journey) Page(task, page string, body Answers, ctx PageContext) (Page, error) {
	t, err := j.Task(task)
	if err != nil {
		return nil, err
	}
	if factory, ok := j.factories[task][page]; ok {
		return factory(body, ctx), nil
	}
	def, ok := j.defs[task][page]
	if !ok {
		return nil, &UnknownPageError{Journey: j.Name, Task: task, Page: page}
	}

	defaultNext := ""
	if i := slices.Index(t.Pages, page); i >= 0 && i+1 < len(t.Pages) {
		defaultNext = t.Pages[i+1]
	}
	previousFn := func() string { return j.previousInWalk(t, page, ctx) }

	return newDeclarativePage(def, task, body, ctx, defaultNext, previousFn), nil
}

// walk follows Next from the first page of a task through the answers
// given. It reports whether the walk reached the end with every page valid.
func (j *Journey) walk(t *Task, ctx PageContext) ([]Page, bool) {
	var pages []Page
	visited := make(map[string]bool)

	name := t.FirstPage()
	for name != "" {
		if visited[name] {
			return pages, false
		}
		visited[name] = true

		answers, ok := ctx.Document.Answers(t.Name, name)
		if !ok {
			return pages, false
		}
		p, err := j.Page(t.Name, name, answers, ctx)
		if err != nil {
			return pages, false
		}
		pages = append(pages, p)
		if len(p.Errors()) > 0 {
			return pages, false
		}
		name = p.Next()
	}
	return pages, true
}

// previousInWalk finds the page that led to page on the current path through
// the task, falling back to the page listed before it
func (j *Journey) previousInWalk(t *Task, page string, ctx PageContext) string {
	if t.FirstPage() == page {
		return ""
	}
	pages, _ := j.walk(t, ctx)
	for i, p := range pages {
		if p.Next() == page {
			return pages[i].Name()
		}
	}
	if i := slices.Index(t.Pages, page); i > 0 {
		return t.Pages[i-1]
	}
	return ""
}

func (j *Journey) prerequisites(t *Task) []string {
	var out []string
	for _, dep := range t.DependsOn {
		if dep != AllOtherTasks {
			out = append(out, dep)
			continue
		}
		for _, name := range j.order {
			other := j.tasks[name]
			if other.Name != t.Name && !slices.Contains(other.DependsOn, AllOtherTasks) && !slices.Contains(out, name) {
				out = append(out, name)
			}
		}
	}
	return out
}

func (j *Journey) checkDependencies() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(j.tasks))

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visiting:
			return fmt.Errorf("task dependency cycle through %q", name)
		case done:
			return nil
		}
		state[name] = visiting
		for _, dep := range j.prerequisites(j.tasks[name]) {
			if _, ok := j.tasks[dep]; !ok {
				return fmt.Errorf("task %s depends on unknown task %q", name, dep)
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[name] = done
		return nil
	}

	for _, name := range j.order {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

// TaskStatus computes the progress of a task from the document
func (j *Journey) TaskStatus(name string, ctx PageContext) (Status, error) {
	t, err := j.Task(name)
	if err != nil {
		return "", err
	}
	if !j.Applies(t, ctx) {
		return StatusCannotStart, nil
	}

	for _, dep := range j.prerequisites(t) {
		if !j.Applies(j.tasks[dep], ctx) {
			continue
		}
		status, err := j.TaskStatus(dep, ctx)
		if err != nil {
			return "", err
		}
		if status != StatusComplete {
			return StatusCannotStart, nil
		}
	}

	if len(ctx.Document[name]) == 0 {
		return StatusNotStarted, nil
	}
	if _, complete := j.walk(t, ctx); complete {
		return StatusComplete, nil
	}
	return StatusInProgress, nil
}

// Applies reports whether a task is part of the journey given the answers so far
func (j *Journey) Applies(t *Task, ctx PageContext) bool {
	if t == nil || t.AppliesWhen == nil {
		return true
	}
	return t.AppliesWhen.match(scope{task: t.Name, ctx: ctx})
}

// TaskListItem is a task and its status
type TaskListItem struct {
	Task   *Task
	Status Status
}

// SectionStatus is a section of the task list
type SectionStatus struct {
	Section *Section
	Tasks   []TaskListItem
}

// TaskList computes the status of every task, grouped by section
func (j *Journey) TaskList(ctx PageContext) ([]SectionStatus, error) {
	out := make([]SectionStatus, 0, len(j.Sections))
	for _, s := range j.Sections {
		ss := SectionStatus{Section: s}
		for _, t := range s.Tasks {
			if !j.Applies(t, ctx) {
				continue
			}
			status, err := j.TaskStatus(t.Name, ctx)
			if err != nil {
				return nil, err
			}
			ss.Tasks = append(ss.Tasks, TaskListItem{Task: t, Status: status})
		}
		if len(ss.Tasks) > 0 {
			out = append(out, ss)
		}
	}
	return out, nil
}

// Completed reports whether every task is complete
func (j *Journey) Completed(ctx PageContext) bool {
	for _, name := range j.order {
		if !j.Applies(j.tasks[name], ctx) {
			continue
		}
		status, err := j.TaskStatus(name, ctx)
		if err != nil || status != StatusComplete {
			return false
		}
	}
	return true
}

// PageSummary holds the responses given on a page
type PageSummary struct {
	Page      string     `json:"page"`
	Title     string     `json:"title"`
	Responses []Response `json:"responses"`
}

// TaskSummary holds the pages visited in a task, in the order they were reached
type TaskSummary struct {
	Task  *Task         `json:"-"`
	Name  string        `json:"task"`
	Title string        `json:"title"`
	Pages []PageSummary `json:"pages"`
}

// Summary collects the responses of every visited page, task by task.
// Tasks that have not been started are left out.
func (j *Journey) Summary(ctx PageContext) []TaskSummary {
	var out []TaskSummary
	for _, name := range j.order {
		t := j.tasks[name]
		if !j.Applies(t, ctx) {
			continue
		}
		pages, _ := j.walk(t, ctx)
		if len(pages) == 0 {
			continue
		}
		ts := TaskSummary{Task: t, Name: t.Name, Title: t.Title}
		for _, p := range pages {
			ts.Pages = append(ts.Pages, PageSummary{Page: p.Name(), Title: p.Title(), Responses: p.Response()})
		}
		out = append(out, ts)
	}
	return out
}

// Validate checks that every route and condition in the declarative pages
// points at something that exists
func (j *Journey) Validate() error {
	var errs []error
	for _, name := range j.order {
		t := j.tasks[name]
		if t.AppliesWhen != nil {
			errs = append(errs, j.validateTaskCondition(t, t.AppliesWhen)...)
		}
		for _, pageName := range t.Pages {
			def := j.defs[name][pageName]
			errs = append(errs, j.validateRules(t, def, "next", def.Next)...)
			errs = append(errs, j.validateRules(t, def, "previous", def.Previous)...)

			seen := make(map[string]bool)
			for _, f := range def.Fields {
				if seen[f.Name] {
					errs = append(errs, fmt.Errorf("%s/%s: duplicate field %q", name, pageName, f.Name))
				}
				seen[f.Name] = true
				for _, c := range []*Condition{f.ShowWhen, f.RequiredWhen} {
					if c != nil {
						errs = append(errs, j.validateCondition(t, def, c)...)
					}
				}
			}
		}
	}
	return errors.Join(errs...)
}

func (j *Journey) validateRules(t *Task, def *PageDefinition, kind string, rules []Rule) []error {
	var errs []error
	for _, r := range rules {
		if r.Page != "" && !slices.Contains(t.Pages, r.Page) {
			errs = append(errs, fmt.Errorf("%s/%s: %s page %q is not in the task", t.Name, def.Name, kind, r.Page))
		}
		if r.When != nil {
			errs = append(errs, j.validateCondition(t, def, r.When)...)
		}
	}
	return errs
}

func (j *Journey) validateCondition(t *Task, def *PageDefinition, c *Condition) []error {
	var errs []error
	for i := range c.All {
		errs = append(errs, j.validateCondition(t, def, &c.All[i])...)
	}
	for i := range c.Any {
		errs = append(errs, j.validateCondition(t, def, &c.Any[i])...)
	}
	if c.Source == SourceRelated || c.Field == "" {
		return errs
	}

	task := c.Task
	if task == "" {
		task = t.Name
	}
	page := c.Page
	if page == "" {
		if task != t.Name {
			return append(errs, fmt.Errorf("%s/%s: condition on task %q needs a page", t.Name, def.Name, task))
		}
		page = def.Name
	}
	if _, ok := j.defs[task][page]; !ok {
		errs = append(errs, fmt.Errorf("%s/%s: condition refers to unknown page %s/%s", t.Name, def.Name, task, page))
	}
	return errs
}

func (j *Journey) validateTaskCondition(t *Task, c *Condition) []error {
	var errs []error
	for i := range c.All {
		errs = append(errs, j.validateTaskCondition(t, &c.All[i])...)
	}
	for i := range c.Any {
		errs = append(errs, j.validateTaskCondition(t, &c.Any[i])...)
	}
	if c.Source == SourceRelated || c.Field == "" {
		return errs
	}
	if c.Task == "" || c.Page == "" {
		return append(errs, fmt.Errorf("%s: applies_when conditions need a task and a page", t.Name))
	}
	if _, ok := j.defs[c.Task][c.Page]; !ok {
		errs = append(errs, fmt.Errorf("%s: applies_when refers to unknown page %s/%s", t.Name, c.Task, c.Page))
	}
	return errs
}

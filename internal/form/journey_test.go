package form

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func testDefinition() JourneyDefinition {
	return JourneyDefinition{
		Name:  "apply",
		Title: "Apply",
		Sections: []SectionDefinition{
			{
				Name:  "basic-information",
				Title: "Basic information",
				Tasks: []TaskDefinition{
					{
						Name:  "basic-information",
						Title: "Basic information",
						Pages: []PageDefinition{
							{
								Name:  "sentence-type",
								Title: "Which of the following best describes the sentence type?",
								Fields: []Field{{
									Name:     "sentenceType",
									Type:     Radios,
									Required: true,
									Error:    "You must choose a sentence type",
									Options: []Option{
										{Value: "standardDeterminate", Label: "Standard determinate custody"},
										{Value: "communityOrder", Label: "Community Order"},
									},
								}},
								Next: []Rule{
									{When: &Condition{Field: "sentenceType", Equals: "communityOrder"}, Page: "situation"},
									{Page: "release-date"},
								},
							},
							{
								Name:  "situation",
								Title: "Which of the following options best describes the situation?",
								Fields: []Field{{
									Name:     "situation",
									Type:     Radios,
									Required: true,
									Options:  []Option{{Value: "riskManagement", Label: "Risk management"}},
								}},
								Next: []Rule{{Page: ""}},
							},
							{
								Name:  "release-date",
								Title: "Do you know the release date?",
								Fields: []Field{
									{Name: "knowReleaseDate", Type: YesNo, Required: true},
									{
										Name:         "releaseDate",
										Type:         Date,
										Label:        "Release date",
										RequiredWhen: &Condition{Field: "knowReleaseDate", Equals: "yes"},
										ShowWhen:     &Condition{Field: "knowReleaseDate", Equals: "yes"},
									},
								},
							},
						},
					},
				},
			},
			{
				Name:  "further-considerations",
				Title: "Further considerations",
				Tasks: []TaskDefinition{
					{
						Name:  "needs",
						Title: "Health and needs",
						Pages: []PageDefinition{
							{
								Name:  "needs",
								Title: "Needs",
								Fields: []Field{
									{
										Name:     "needs",
										Type:     Checkboxes,
										Label:    "Which needs apply?",
										Required: true,
										Options: []Option{
											{Value: "mobility", Label: "Mobility"},
											{Value: "learning", Label: "Learning disability"},
										},
									},
									{Name: "details", Type: TextArea, Label: "Details", MaxLength: 10},
									{Name: "age", Type: Number, Label: "Age", Min: intPtr(18), Max: intPtr(120)},
									{Name: "email", Type: Email, Label: "Contact email"},
									{Name: "crn", Type: Text, Label: "CRN", Pattern: `^[A-Z][0-9]{6}$`},
								},
							},
						},
					},
					{
						Name:      "check-your-answers",
						Title:     "Check your answers",
						DependsOn: []string{AllOtherTasks},
						Pages: []PageDefinition{{
							Name:  "review",
							Title: "Check your answers",
							Fields: []Field{{
								Name:     "reviewed",
								Type:     Checkboxes,
								Required: true,
								Options:  []Option{{Value: "1", Label: "I have reviewed my answers"}},
							}},
						}},
					},
				},
			},
		},
	}
}

func newTestJourney(t *testing.T) *Journey {
	t.Helper()
	j, err := NewJourney(testDefinition())
	require.NoError(t, err)
	require.NoError(t, j.Validate())
	return j
}

func page(t *testing.T, j *Journey, task, name string, body Answers, doc Document) Page {
	t.Helper()
	p, err := j.Page(task, name, body, PageContext{Document: doc})
	require.NoError(t, err)
	return p
}

func TestUnknownLookupsAreNotFound(t *testing.T) {
	j := newTestJourney(t)

	_, err := j.Page("nope", "sentence-type", nil, PageContext{})
	var taskErr *UnknownTaskError
	assert.ErrorAs(t, err, &taskErr)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = j.Page("basic-information", "nope", nil, PageContext{})
	var pageErr *UnknownPageError
	assert.ErrorAs(t, err, &pageErr)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "nope", pageErr.Page)
}

func TestRequiredChoice(t *testing.T) {
	j := newTestJourney(t)

	p := page(t, j, "basic-information", "sentence-type", Answers{}, nil)
	assert.Equal(t, "You must choose a sentence type", p.Errors().Get("sentenceType"))

	p = page(t, j, "basic-information", "sentence-type", Answers{"sentenceType": "made-up"}, nil)
	assert.Equal(t, "Select a valid option", p.Errors().Get("sentenceType"))

	p = page(t, j, "basic-information", "sentence-type", Answers{"sentenceType": "standardDeterminate"}, nil)
	assert.Empty(t, p.Errors())
	assert.Equal(t, []Response{{
		Question: "Which of the following best describes the sentence type?",
		Answer:   "Standard determinate custody",
	}}, p.Response())
}

func TestConditionalNext(t *testing.T) {
	j := newTestJourney(t)

	p := page(t, j, "basic-information", "sentence-type", Answers{"sentenceType": "communityOrder"}, nil)
	assert.Equal(t, "situation", p.Next())
	assert.Equal(t, "", p.Previous())

	p = page(t, j, "basic-information", "sentence-type", Answers{"sentenceType": "standardDeterminate"}, nil)
	assert.Equal(t, "release-date", p.Next())

	p = page(t, j, "basic-information", "situation", Answers{"situation": "riskManagement"}, nil)
	assert.Equal(t, "", p.Next(), "explicit end of task")
}

func TestPreviousFollowsThePathTaken(t *testing.T) {
	j := newTestJourney(t)

	doc := Document{}
	doc.Set("basic-information", "sentence-type", Answers{"sentenceType": "standardDeterminate"})
	p := page(t, j, "basic-information", "release-date", Answers{}, doc)
	assert.Equal(t, "sentence-type", p.Previous())

	// situation is listed before release-date, but was not visited
	doc.Set("basic-information", "situation", Answers{"situation": "riskManagement"})
	p = page(t, j, "basic-information", "release-date", Answers{}, doc)
	assert.Equal(t, "sentence-type", p.Previous())
}

func TestConditionalRequiredDate(t *testing.T) {
	j := newTestJourney(t)

	p := page(t, j, "basic-information", "release-date", Answers{"knowReleaseDate": "yes"}, nil)
	assert.Equal(t, "You must enter a date", p.Errors().Get("releaseDate"))

	p = page(t, j, "basic-information", "release-date", Answers{
		"knowReleaseDate":   "yes",
		"releaseDate-day":   "31",
		"releaseDate-month": "2",
		"releaseDate-year":  "2025",
	}, nil)
	assert.Equal(t, "Enter a valid date", p.Errors().Get("releaseDate"))

	p = page(t, j, "basic-information", "release-date", Answers{
		"knowReleaseDate":   "yes",
		"releaseDate-day":   "1",
		"releaseDate-month": "3",
		"releaseDate-year":  "2025",
		"unexpected":        "dropped",
	}, nil)
	assert.Empty(t, p.Errors())
	assert.Equal(t, Answers{
		"knowReleaseDate":   "yes",
		"releaseDate":       "2025-03-01",
		"releaseDate-day":   "1",
		"releaseDate-month": "3",
		"releaseDate-year":  "2025",
	}, p.Body())
	assert.Equal(t, []Response{
		{Question: "Do you know the release date?", Answer: "Yes"},
		{Question: "Release date", Answer: "Saturday 1 March 2025"},
	}, p.Response())

	// hidden fields are dropped
	p = page(t, j, "basic-information", "release-date", Answers{
		"knowReleaseDate": "no",
		"releaseDate":     "2025-03-01",
	}, nil)
	assert.Empty(t, p.Errors())
	assert.Equal(t, Answers{"knowReleaseDate": "no"}, p.Body())
}

func TestStoredDatesRoundTrip(t *testing.T) {
	j := newTestJourney(t)

	p := page(t, j, "basic-information", "release-date", Answers{
		"knowReleaseDate": "yes",
		"releaseDate":     "2025-03-01",
	}, nil)
	body := p.Body()
	assert.Equal(t, "1", body["releaseDate-day"])
	assert.Equal(t, "3", body["releaseDate-month"])
	assert.Equal(t, "2025", body["releaseDate-year"])
}

func TestFieldFormatChecks(t *testing.T) {
	j := newTestJourney(t)

	tests := []struct {
		name  string
		body  Answers
		field string
		want  string
	}{
		{"missing checkbox", Answers{}, "needs", "You must select an option"},
		{"unknown checkbox", Answers{"needs": []string{"mobility", "other"}}, "needs", "Select a valid option"},
		{"too long", Answers{"needs": "mobility", "details": "far too long a value"}, "details", "Must be 10 characters or fewer"},
		{"not a number", Answers{"needs": "mobility", "age": "ten"}, "age", "Enter a number"},
		{"too small", Answers{"needs": "mobility", "age": "12"}, "age", "Enter a number of at least 18"},
		{"too big", Answers{"needs": "mobility", "age": "200"}, "age", "Enter a number no greater than 120"},
		{"bad email", Answers{"needs": "mobility", "email": "nope"}, "email", "Enter an email address in the correct format"},
		{"bad pattern", Answers{"needs": "mobility", "crn": "123"}, "crn", "Enter a value in the correct format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := page(t, j, "needs", "needs", tt.body, nil)
			assert.Equal(t, tt.want, p.Errors().Get(tt.field))
		})
	}

	p := page(t, j, "needs", "needs", Answers{
		"needs": []any{"mobility", "learning"},
		"age":   "40",
		"email": "a@example.com",
		"crn":   "X123456",
	}, nil)
	assert.Empty(t, p.Errors())
	assert.Equal(t, []string{"mobility", "learning"}, p.Body()["needs"])
	assert.Contains(t, p.Response(), Response{Question: "Which needs apply?", Answer: "Mobility, Learning disability"})
}

func completeDocument() Document {
	doc := Document{}
	doc.Set("basic-information", "sentence-type", Answers{"sentenceType": "standardDeterminate"})
	doc.Set("basic-information", "release-date", Answers{"knowReleaseDate": "no"})
	doc.Set("needs", "needs", Answers{"needs": []string{"mobility"}})
	return doc
}

func TestTaskStatus(t *testing.T) {
	j := newTestJourney(t)
	doc := Document{}
	ctx := PageContext{Document: doc}

	status, err := j.TaskStatus("basic-information", ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusNotStarted, status)

	status, err = j.TaskStatus("check-your-answers", ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusCannotStart, status)

	doc.Set("basic-information", "sentence-type", Answers{"sentenceType": "standardDeterminate"})
	status, _ = j.TaskStatus("basic-information", ctx)
	assert.Equal(t, StatusInProgress, status)

	doc.Set("basic-information", "release-date", Answers{"knowReleaseDate": "yes"})
	status, _ = j.TaskStatus("basic-information", ctx)
	assert.Equal(t, StatusInProgress, status, "an invalid page keeps the task in progress")

	doc = completeDocument()
	ctx = PageContext{Document: doc}
	status, _ = j.TaskStatus("basic-information", ctx)
	assert.Equal(t, StatusComplete, status)

	status, _ = j.TaskStatus("check-your-answers", ctx)
	assert.Equal(t, StatusNotStarted, status)
	assert.False(t, j.Completed(ctx))

	doc.Set("check-your-answers", "review", Answers{"reviewed": []string{"1"}})
	assert.True(t, j.Completed(ctx))

	_, err = j.TaskStatus("missing", ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBranchChangesCompletion(t *testing.T) {
	j := newTestJourney(t)
	doc := Document{}
	doc.Set("basic-information", "sentence-type", Answers{"sentenceType": "communityOrder"})
	doc.Set("basic-information", "situation", Answers{"situation": "riskManagement"})

	status, err := j.TaskStatus("basic-information", PageContext{Document: doc})
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, status, "release-date is not on the community order path")
}

func TestTaskList(t *testing.T) {
	j := newTestJourney(t)
	list, err := j.TaskList(PageContext{Document: completeDocument()})
	require.NoError(t, err)

	require.Len(t, list, 2)
	assert.Equal(t, "basic-information", list[0].Section.Name)
	assert.Equal(t, StatusComplete, list[0].Tasks[0].Status)
	assert.Equal(t, "needs", list[1].Tasks[0].Task.Name)
	assert.Equal(t, StatusNotStarted, list[1].Tasks[1].Status)
}

func gatedJourney(t *testing.T) *Journey {
	t.Helper()
	def := testDefinition()
	def.Sections[1].Tasks[0].AppliesWhen = &Condition{
		Task:   "basic-information",
		Page:   "sentence-type",
		Field:  "sentenceType",
		Equals: "standardDeterminate",
	}
	j, err := NewJourney(def)
	require.NoError(t, err)
	require.NoError(t, j.Validate())
	return j
}

func TestTasksThatDoNotApply(t *testing.T) {
	j := gatedJourney(t)
	needs, err := j.Task("needs")
	require.NoError(t, err)

	doc := Document{}
	doc.Set("basic-information", "sentence-type", Answers{"sentenceType": "communityOrder"})
	doc.Set("basic-information", "situation", Answers{"situation": "riskManagement"})
	ctx := PageContext{Document: doc}

	assert.False(t, j.Applies(needs, ctx))

	status, err := j.TaskStatus("needs", ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusCannotStart, status)

	status, err = j.TaskStatus("check-your-answers", ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusNotStarted, status, "tasks that do not apply are not prerequisites")

	list, err := j.TaskList(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Len(t, list[1].Tasks, 1)
	assert.Equal(t, "check-your-answers", list[1].Tasks[0].Task.Name)

	assert.False(t, j.Completed(ctx))
	doc.Set("check-your-answers", "review", Answers{"reviewed": []string{"1"}})
	assert.True(t, j.Completed(ctx))

	doc.Set("needs", "needs", Answers{"needs": []string{"learning"}})
	for _, ts := range j.Summary(ctx) {
		assert.NotEqual(t, "needs", ts.Name, "answers to tasks that do not apply are not summarised")
	}
}

func TestTaskConditionIsChecked(t *testing.T) {
	def := testDefinition()
	def.Sections[1].Tasks[0].AppliesWhen = &Condition{Field: "sentenceType", Equals: "communityOrder"}
	j, err := NewJourney(def)
	require.NoError(t, err)
	assert.ErrorContains(t, j.Validate(), "applies_when conditions need a task and a page")

	def.Sections[1].Tasks[0].AppliesWhen = &Condition{Task: "basic-information", Page: "gone", Field: "x"}
	j, err = NewJourney(def)
	require.NoError(t, err)
	assert.ErrorContains(t, j.Validate(), "applies_when refers to unknown page basic-information/gone")
}

func TestSummaryFollowsWalkOrder(t *testing.T) {
	j := newTestJourney(t)
	doc := completeDocument()
	// answers off the current path are not summarised
	doc.Set("basic-information", "situation", Answers{"situation": "riskManagement"})

	summary := j.Summary(PageContext{Document: doc})
	require.Len(t, summary, 2)

	assert.Equal(t, "basic-information", summary[0].Name)
	require.Len(t, summary[0].Pages, 2)
	assert.Equal(t, "sentence-type", summary[0].Pages[0].Page)
	assert.Equal(t, "release-date", summary[0].Pages[1].Page)
	assert.Equal(t, "needs", summary[1].Name)
}

func TestCyclesDoNotHang(t *testing.T) {
	def := JourneyDefinition{
		Name: "loop",
		Sections: []SectionDefinition{{
			Name: "s",
			Tasks: []TaskDefinition{{
				Name: "t",
				Pages: []PageDefinition{
					{Name: "a", Next: []Rule{{Page: "b"}}},
					{Name: "b", Next: []Rule{{Page: "a"}}},
				},
			}},
		}},
	}
	j, err := NewJourney(def)
	require.NoError(t, err)

	doc := Document{}
	doc.Set("t", "a", Answers{})
	doc.Set("t", "b", Answers{})
	status, err := j.TaskStatus("t", PageContext{Document: doc})
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, status)
}

func TestRelatedConditions(t *testing.T) {
	def := JourneyDefinition{
		Name: "assess",
		Sections: []SectionDefinition{{
			Name: "s",
			Tasks: []TaskDefinition{{
				Name: "suitability",
				Pages: []PageDefinition{
					{
						Name: "suitability",
						Next: []Rule{{
							When: &Condition{Source: SourceRelated, Task: "type-of-ap", Page: "ap-type", Field: "type", In: []string{"pipe", "esap"}},
							Page: "specialist",
						}},
					},
					{Name: "specialist"},
					{Name: "standard"},
				},
			}},
		}},
	}
	j, err := NewJourney(def)
	require.NoError(t, err)
	require.NoError(t, j.Validate())

	related := Document{}
	related.Set("type-of-ap", "ap-type", Answers{"type": "pipe"})
	p, err := j.Page("suitability", "suitability", Answers{}, PageContext{Related: related})
	require.NoError(t, err)
	assert.Equal(t, "specialist", p.Next())

	related.Set("type-of-ap", "ap-type", Answers{"type": "normal"})
	p, _ = j.Page("suitability", "suitability", Answers{}, PageContext{Related: related})
	assert.Equal(t, "", p.Next(), "unmatched rules end the task")

	p, _ = j.Page("suitability", "specialist", Answers{}, PageContext{Related: related})
	assert.Equal(t, "standard", p.Next(), "pages without rules follow the list")
}

func TestUnmatchedPreviousRulesReturnToTaskList(t *testing.T) {
	def := JourneyDefinition{
		Name: "routes",
		Sections: []SectionDefinition{{
			Name: "s",
			Tasks: []TaskDefinition{{
				Name: "t",
				Pages: []PageDefinition{
					{Name: "a", Fields: []Field{{Name: "x", Type: YesNo}}, Next: []Rule{{When: &Condition{Field: "x", Equals: "yes"}, Page: "c"}}},
					{Name: "b"},
					{Name: "c", Previous: []Rule{{When: &Condition{Page: "a", Field: "x", Equals: "yes"}, Page: "a"}}},
				},
			}},
		}},
	}
	j, err := NewJourney(def)
	require.NoError(t, err)
	require.NoError(t, j.Validate())

	doc := Document{}
	doc.Set("t", "a", Answers{"x": "no"})
	p, err := j.Page("t", "a", Answers{"x": "no"}, PageContext{Document: doc})
	require.NoError(t, err)
	assert.Equal(t, "", p.Next())

	p, err = j.Page("t", "c", Answers{}, PageContext{Document: doc})
	require.NoError(t, err)
	assert.Equal(t, "", p.Previous())

	doc.Set("t", "a", Answers{"x": "yes"})
	p, _ = j.Page("t", "c", Answers{}, PageContext{Document: doc})
	assert.Equal(t, "a", p.Previous())
}

func TestDefinitionErrors(t *testing.T) {
	t.Run("dangling route", func(t *testing.T) {
		def := testDefinition()
		def.Sections[0].Tasks[0].Pages[0].Next = []Rule{{Page: "nowhere"}}
		j, err := NewJourney(def)
		require.NoError(t, err)
		assert.ErrorContains(t, j.Validate(), `next page "nowhere" is not in the task`)
	})

	t.Run("unknown condition page", func(t *testing.T) {
		def := testDefinition()
		def.Sections[0].Tasks[0].Pages[0].Next = []Rule{{When: &Condition{Task: "needs", Page: "gone", Field: "x"}, Page: ""}}
		j, err := NewJourney(def)
		require.NoError(t, err)
		assert.ErrorContains(t, j.Validate(), "unknown page needs/gone")
	})

	t.Run("dependency cycle", func(t *testing.T) {
		def := testDefinition()
		def.Sections[0].Tasks[0].DependsOn = []string{"needs"}
		def.Sections[1].Tasks[0].DependsOn = []string{"basic-information"}
		_, err := NewJourney(def)
		assert.ErrorContains(t, err, "cycle")
	})

	t.Run("choice without options", func(t *testing.T) {
		def := testDefinition()
		def.Sections[0].Tasks[0].Pages[0].Fields[0].Options = nil
		_, err := NewJourney(def)
		assert.ErrorContains(t, err, "need options")
	})

	t.Run("duplicate task", func(t *testing.T) {
		def := testDefinition()
		def.Sections[1].Tasks[0].Name = "basic-information"
		_, err := NewJourney(def)
		assert.ErrorContains(t, err, "duplicate task")
	})
}

func TestRegisterPage(t *testing.T) {
	j := newTestJourney(t)

	err := j.RegisterPage("basic-information", "missing", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	called := false
	require.NoError(t, j.RegisterPage("basic-information", "situation", func(body Answers, ctx PageContext) Page {
		called = true
		other, _ := NewJourney(testDefinition())
		p, _ := other.Page("basic-information", "situation", body, ctx)
		return p
	}))
	_, err = j.Page("basic-information", "situation", Answers{}, PageContext{})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestAnswersFromForm(t *testing.T) {
	a := AnswersFromForm(map[string][]string{
		"single":   {"x"},
		"multi[]":  {"a", "b"},
		"empty":    {},
		"repeated": {"1", "2"},
	})
	assert.Equal(t, "x", a.String("single"))
	assert.Equal(t, []string{"a", "b"}, a.Strings("multi"))
	assert.False(t, a.Has("empty"))
	assert.Equal(t, "1", a.String("repeated"))
}

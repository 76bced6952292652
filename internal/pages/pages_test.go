package pages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/approved-premises/internal/form"
)

func docWith(task, page string, a form.Answers) form.Document {
	doc := form.Document{}
	doc.Set(task, page, a)
	return doc
}

func TestReleaseDate(t *testing.T) {
	t.Run("requires an answer", func(t *testing.T) {
		p := NewReleaseDate(form.Answers{}, form.PageContext{})
		assert.Equal(t, "You must specify if you know the release date", p.Errors().Get("knowReleaseDate"))
	})

	t.Run("requires a valid date when known", func(t *testing.T) {
		p := NewReleaseDate(form.Answers{"knowReleaseDate": "yes"}, form.PageContext{})
		assert.Equal(t, "You must specify the release date", p.Errors().Get("releaseDate"))

		p = NewReleaseDate(form.Answers{
			"knowReleaseDate":   "yes",
			"releaseDate-day":   "30",
			"releaseDate-month": "2",
			"releaseDate-year":  "2025",
		}, form.PageContext{})
		assert.Equal(t, "The release date is an invalid date", p.Errors().Get("releaseDate"))
	})

	t.Run("drops the date when unknown", func(t *testing.T) {
		p := NewReleaseDate(form.Answers{"knowReleaseDate": "no", "releaseDate": "2025-01-01"}, form.PageContext{})
		assert.Empty(t, p.Errors())
		assert.Equal(t, form.Answers{"knowReleaseDate": "no"}, p.Body())
		assert.Equal(t, []form.Response{{Question: "Do you know the person's release date?", Answer: "No"}}, p.Response())
	})

	t.Run("response includes the date", func(t *testing.T) {
		p := NewReleaseDate(form.Answers{
			"knowReleaseDate":   "yes",
			"releaseDate-day":   "3",
			"releaseDate-month": "2",
			"releaseDate-year":  "2025",
		}, form.PageContext{})
		assert.Empty(t, p.Errors())
		assert.Equal(t, "2025-02-03", p.Body()["releaseDate"])
		assert.Equal(t, form.Response{Question: "Release date", Answer: "Monday 3 February 2025"}, p.Response()[1])
	})

	t.Run("next depends on the release type", func(t *testing.T) {
		p := NewReleaseDate(form.Answers{"knowReleaseDate": "no"}, form.PageContext{})
		assert.Equal(t, "placement-date", p.Next())
		assert.Equal(t, "release-type", p.Previous())

		ctx := form.PageContext{Document: docWith(basicInformation, "release-type", form.Answers{"releaseType": "parole"})}
		p = NewReleaseDate(form.Answers{"knowReleaseDate": "no"}, ctx)
		assert.Equal(t, "oral-hearing", p.Next())
	})
}

func TestPlacementDate(t *testing.T) {
	ctx := form.PageContext{Document: docWith(basicInformation, "release-date", form.Answers{
		"knowReleaseDate": "yes",
		"releaseDate":     "2025-04-07",
	})}

	p := NewPlacementDate(form.Answers{}, ctx)
	assert.Equal(t, "Is Monday 7 April 2025 the date you want the placement to start?", p.Title())
	assert.NotEmpty(t, p.Errors().Get("startDateSameAsReleaseDate"))

	p = NewPlacementDate(form.Answers{"startDateSameAsReleaseDate": "yes"}, ctx)
	assert.Empty(t, p.Errors())
	assert.Equal(t, "2025-04-07", p.StartDate())
	assert.Contains(t, p.Response(), form.Response{Question: "Placement start date", Answer: "Monday 7 April 2025"})

	p = NewPlacementDate(form.Answers{"startDateSameAsReleaseDate": "no"}, ctx)
	assert.Equal(t, "You must enter a start date", p.Errors().Get("startDate"))

	p = NewPlacementDate(form.Answers{
		"startDateSameAsReleaseDate": "no",
		"startDate-day":              "14",
		"startDate-month":            "4",
		"startDate-year":             "2025",
	}, ctx)
	assert.Empty(t, p.Errors())
	assert.Equal(t, "2025-04-14", p.StartDate())
	assert.Equal(t, "placement-duration", p.Next())
	assert.Equal(t, "release-date", p.Previous())

	p = NewPlacementDate(form.Answers{}, form.PageContext{})
	assert.Equal(t, "Is the placement start date the same as the release date?", p.Title())
}

func TestPlacementDuration(t *testing.T) {
	tests := []struct {
		name   string
		body   form.Answers
		errors map[string]string
	}{
		{"missing answer", form.Answers{}, map[string]string{
			"differentDuration": "You must specify if the application requires a different placement duration",
		}},
		{"standard duration", form.Answers{"differentDuration": "no", "durationWeeks": "3"}, map[string]string{}},
		{"zero length", form.Answers{"differentDuration": "yes", "durationWeeks": "0", "reason": "x"}, map[string]string{
			"duration": "The duration of the placement must be greater than 0",
		}},
		{"not numbers", form.Answers{"differentDuration": "yes", "durationWeeks": "two", "durationDays": "-1", "reason": "x"}, map[string]string{
			"durationWeeks": "The number of weeks must be a whole number",
			"durationDays":  "The number of days must be a whole number",
		}},
		{"missing reason", form.Answers{"differentDuration": "yes", "durationWeeks": "2"}, map[string]string{
			"reason": "You must specify the reason for the different placement duration",
		}},
		{"too long", form.Answers{"differentDuration": "yes", "durationWeeks": "2635249153387078803", "durationDays": "9", "reason": "x"}, map[string]string{
			"durationWeeks": "The number of weeks must be 104 or fewer",
			"durationDays":  "The number of days must be 6 or fewer",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlacementDuration(tt.body, form.PageContext{})
			assert.Equal(t, tt.errors, p.Errors().Map())
		})
	}

	huge := NewPlacementDuration(form.Answers{
		"differentDuration": "yes",
		"durationWeeks":     "2635249153387078803",
		"reason":            "because",
	}, form.PageContext{})
	assert.NotContains(t, huge.Body(), "duration")
	assert.Equal(t, 84, huge.Duration(), "an out of range length falls back to the standard duration")

	longest := NewPlacementDuration(form.Answers{
		"differentDuration": "yes",
		"durationWeeks":     "104",
		"durationDays":      "6",
		"reason":            "because",
	}, form.PageContext{})
	assert.Empty(t, longest.Errors())
	assert.Equal(t, 734, longest.Duration())

	p := NewPlacementDuration(form.Answers{
		"differentDuration": "yes",
		"durationWeeks":     "2",
		"durationDays":      "3",
		"reason":            "Longer licence period",
	}, form.PageContext{})
	assert.Empty(t, p.Errors())
	assert.Equal(t, "17", p.Body()["duration"])
	assert.Equal(t, 17, p.Duration())
	assert.Equal(t, []form.Response{
		{Question: "Does this application require a different placement duration?", Answer: "Yes"},
		{Question: "Placement duration", Answer: "2 weeks, 3 days"},
		{Question: "Why does this person require a different placement duration?", Answer: "Longer licence period"},
	}, p.Response())

	p = NewPlacementDuration(form.Answers{"differentDuration": "no", "durationWeeks": "3"}, form.PageContext{})
	assert.Equal(t, form.Answers{"differentDuration": "no"}, p.Body())
	assert.Equal(t, 84, p.Duration())

	pipe := form.PageContext{Document: docWith("type-of-ap", "ap-type", form.Answers{"type": "pipe"})}
	assert.Equal(t, 182, NewPlacementDuration(form.Answers{"differentDuration": "no"}, pipe).Duration())
}

func TestStandardDuration(t *testing.T) {
	assert.Equal(t, 84, StandardDuration(nil))
	assert.Equal(t, 182, StandardDuration(docWith("type-of-ap", "ap-type", form.Answers{"type": "pipe"})))
	assert.Equal(t, 364, StandardDuration(docWith("type-of-ap", "ap-type", form.Answers{"type": "esap"})))
}

func TestMakeADecision(t *testing.T) {
	p := NewMakeADecision(form.Answers{}, form.PageContext{})
	assert.Equal(t, "You must select one option", p.Errors().Get("decision"))
	assert.Equal(t, OutcomeNone, p.Outcome())

	p = NewMakeADecision(form.Answers{"decision": "maybe"}, form.PageContext{})
	assert.Equal(t, "Select a valid option", p.Errors().Get("decision"))

	p = NewMakeADecision(form.Answers{"decision": "riskTooHigh"}, form.PageContext{})
	assert.Equal(t, OutcomeRejected, p.Outcome())
	assert.Equal(t, "You must provide a rationale for rejecting the application", p.Errors().Get("decisionRationale"))

	p = NewMakeADecision(form.Answers{"decision": "riskTooHigh", "decisionRationale": "Risk to staff"}, form.PageContext{})
	assert.Empty(t, p.Errors())
	assert.Equal(t, []form.Response{
		{Question: "Decision", Answer: "Reject, risk too high"},
		{Question: "Rationale", Answer: "Risk to staff"},
	}, p.Response())

	p = NewMakeADecision(form.Answers{"decision": "accept"}, form.PageContext{})
	assert.Empty(t, p.Errors())
	assert.Equal(t, OutcomeAccepted, p.Outcome())
}

func TestRegister(t *testing.T) {
	j, err := form.NewJourney(form.JourneyDefinition{
		Name: "assess",
		Sections: []form.SectionDefinition{{
			Name: "make-a-decision",
			Tasks: []form.TaskDefinition{{
				Name:  "make-a-decision",
				Pages: []form.PageDefinition{{Name: "make-a-decision"}},
			}},
		}},
	})
	require.NoError(t, err)
	require.NoError(t, Register(j))

	page, err := j.Page("make-a-decision", "make-a-decision", form.Answers{"decision": "accept"}, form.PageContext{})
	require.NoError(t, err)
	assert.IsType(t, &MakeADecision{}, page)

	assert.Equal(t, [][2]string{{"make-a-decision", "make-a-decision"}}, Registered("assess"))

	missing, err := form.NewJourney(form.JourneyDefinition{
		Name: "assess",
		Sections: []form.SectionDefinition{{
			Name:  "s",
			Tasks: []form.TaskDefinition{{Name: "other", Pages: []form.PageDefinition{{Name: "x"}}}},
		}},
	})
	require.NoError(t, err)
	assert.ErrorIs(t, Register(missing), form.ErrNotFound)
}

package journeys

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/approved-premises/internal/form"
	"github.com/terra-clan/approved-premises/internal/pages"
)

const minimal = `
name: tiny
title: Tiny
sections:
  - name: only
    title: Only
    tasks:
      - name: only
        title: Only
        pages:
          - name: first
            title: First
            fields:
              - name: answer
                type: yesno
                required: true
`

func loadDefaults(t *testing.T) *Loader {
	t.Helper()
	l := NewLoader()
	require.NoError(t, l.LoadFromFS(Defaults()))
	return l
}

func TestLoadDefaults(t *testing.T) {
	l := loadDefaults(t)

	var names []string
	for _, j := range l.List() {
		names = append(names, j.Name)
	}
	assert.Equal(t, []string{"apply", "assess", "placement-application"}, names)
	assert.Equal(t, "apply.yaml", l.Source("apply"))

	_, err := l.Get("missing")
	assert.ErrorIs(t, err, form.ErrNotFound)
}

func TestGoPagesAreInstalled(t *testing.T) {
	l := loadDefaults(t)

	apply, err := l.Get("apply")
	require.NoError(t, err)
	p, err := apply.Page("basic-information", "release-date", form.Answers{}, form.PageContext{})
	require.NoError(t, err)
	assert.IsType(t, &pages.ReleaseDate{}, p)

	assess, err := l.Get("assess")
	require.NoError(t, err)
	p, err = assess.Page("make-a-decision", "make-a-decision", form.Answers{}, form.PageContext{})
	require.NoError(t, err)
	assert.IsType(t, &pages.MakeADecision{}, p)
}

func TestApplyBasicInformationWalk(t *testing.T) {
	l := loadDefaults(t)
	apply, err := l.Get("apply")
	require.NoError(t, err)

	doc := form.Document{}
	ctx := form.PageContext{Document: doc}
	answer := func(page string, a form.Answers) string {
		p, err := apply.Page("basic-information", page, a, ctx)
		require.NoError(t, err)
		require.Empty(t, p.Errors(), page)
		doc.Set("basic-information", page, p.Body())
		return p.Next()
	}

	next := answer("sentence-type", form.Answers{"sentenceType": "standardDeterminate"})
	assert.Equal(t, "release-type", next)
	next = answer(next, form.Answers{"releaseType": "licence"})
	assert.Equal(t, "release-date", next)
	next = answer(next, form.Answers{"knowReleaseDate": "yes", "releaseDate": "2025-06-02"})
	assert.Equal(t, "placement-date", next)
	next = answer(next, form.Answers{"startDateSameAsReleaseDate": "yes"})
	assert.Equal(t, "placement-duration", next)

	status, err := apply.TaskStatus("basic-information", ctx)
	require.NoError(t, err)
	assert.Equal(t, form.StatusInProgress, status)

	next = answer(next, form.Answers{"differentDuration": "no"})
	assert.Equal(t, "placement-purpose", next)
	next = answer(next, form.Answers{"placementPurposes": []string{"publicProtection"}})
	assert.Equal(t, "", next)

	status, err = apply.TaskStatus("basic-information", ctx)
	require.NoError(t, err)
	assert.Equal(t, form.StatusComplete, status)

	status, err = apply.TaskStatus("type-of-ap", ctx)
	require.NoError(t, err)
	assert.Equal(t, form.StatusNotStarted, status)

	status, err = apply.TaskStatus("check-your-answers", ctx)
	require.NoError(t, err)
	assert.Equal(t, form.StatusCannotStart, status)
}

func TestAssessBranchesOnApplicationAnswers(t *testing.T) {
	l := loadDefaults(t)
	assess, err := l.Get("assess")
	require.NoError(t, err)

	related := form.Document{}
	related.Set("type-of-ap", "ap-type", form.Answers{"type": "pipe"})

	body := form.Answers{"riskFactors": "yes", "riskManagement": "yes", "locationOfPlacement": "no", "moveOnPlan": "yes"}
	p, err := assess.Page("suitability-assessment", "suitability-assessment", body, form.PageContext{Related: related})
	require.NoError(t, err)
	assert.Equal(t, "pipe-suitability", p.Next())

	p, err = assess.Page("suitability-assessment", "suitability-assessment", body, form.PageContext{})
	require.NoError(t, err)
	assert.Equal(t, "", p.Next())
}

func rejectedAssessment() form.Document {
	doc := form.Document{}
	doc.Set("review-application", "review", form.Answers{"reviewed": "yes"})
	doc.Set("sufficient-information", "sufficient-information", form.Answers{"sufficientInformation": "yes"})
	doc.Set("suitability-assessment", "suitability-assessment", form.Answers{
		"riskFactors": "yes", "riskManagement": "no", "locationOfPlacement": "no", "moveOnPlan": "no",
	})
	doc.Set("required-actions", "required-actions", form.Answers{"additionalActions": "no", "curfewsOrSignIns": "no"})
	doc.Set("make-a-decision", "make-a-decision", form.Answers{"decision": "riskTooHigh", "decisionRationale": "Risk cannot be managed"})
	doc.Set("check-your-answers", "review", form.Answers{"reviewed": []string{"1"}})
	return doc
}

func TestRejectedAssessmentSkipsMatching(t *testing.T) {
	l := loadDefaults(t)
	assess, err := l.Get("assess")
	require.NoError(t, err)

	doc := rejectedAssessment()
	ctx := form.PageContext{Document: doc}
	assert.True(t, assess.Completed(ctx))

	status, err := assess.TaskStatus("matching-information", ctx)
	require.NoError(t, err)
	assert.Equal(t, form.StatusCannotStart, status)

	doc.Set("make-a-decision", "make-a-decision", form.Answers{"decision": "accept"})
	assert.False(t, assess.Completed(ctx), "accepting brings matching information into the journey")

	status, err = assess.TaskStatus("matching-information", ctx)
	require.NoError(t, err)
	assert.Equal(t, form.StatusNotStarted, status)
}

func TestLoadRejectsInvalidDefinitions(t *testing.T) {
	l := NewLoader()
	require.NoError(t, l.LoadFromFS(fstest.MapFS{"tiny.yaml": {Data: []byte(minimal)}}))

	err := l.LoadFromFS(fstest.MapFS{
		"tiny.yaml":   {Data: []byte(minimal)},
		"broken.yaml": {Data: []byte("name: broken\nsections:\n  - name: s\n    tasks:\n      - name: t\n        pages:\n          - name: p\n            next:\n              - page: nowhere\n")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")

	// the previous set survives a failed load
	_, err = l.Get("tiny")
	assert.NoError(t, err)

	err = l.LoadFromFS(fstest.MapFS{"unknown.yaml": {Data: []byte("name: x\ncolour: blue\n")}})
	assert.ErrorContains(t, err, "colour")

	err = l.LoadFromFS(fstest.MapFS{})
	assert.ErrorContains(t, err, "no journey definitions")
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tiny.yml"), []byte(minimal), 0o644))

	l := NewLoader()
	require.NoError(t, l.LoadFromDir(dir))
	j, err := l.Get("tiny")
	require.NoError(t, err)
	assert.Contains(t, Describe(j), "only/first")
}

func TestDirectoryLoadsOverDefaults(t *testing.T) {
	dir := t.TempDir()
	override := strings.Replace(minimal, "name: tiny", "name: apply", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "apply.yaml"), []byte(override), 0o644))

	l := loadDefaults(t)
	require.NoError(t, l.LoadFromDir(dir))

	var names []string
	for _, j := range l.List() {
		names = append(names, j.Name)
	}
	assert.Equal(t, []string{"apply", "assess", "placement-application"}, names)

	apply, err := l.Get("apply")
	require.NoError(t, err)
	assert.Contains(t, Describe(apply), "only/first")
	assert.Equal(t, filepath.Join(dir, "apply.yaml"), l.Source("apply"))
	assert.Equal(t, "assess.yaml", l.Source("assess"))

	// a failed reload keeps the override
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: [\n"), 0o644))
	require.Error(t, l.LoadFromDir(dir))
	assert.Equal(t, filepath.Join(dir, "apply.yaml"), l.Source("apply"))

	// replacing the directory contents drops its old override
	require.NoError(t, os.Remove(filepath.Join(dir, "broken.yaml")))
	require.NoError(t, os.Remove(filepath.Join(dir, "apply.yaml")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tiny.yaml"), []byte(minimal), 0o644))
	require.NoError(t, l.LoadFromDir(dir))

	assert.Equal(t, "apply.yaml", l.Source("apply"))
	_, err = l.Get("tiny")
	assert.NoError(t, err)
	_, err = l.Get("assess")
	assert.NoError(t, err)
}

func TestWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "tiny.yaml")
	require.NoError(t, os.WriteFile(file, []byte(minimal), 0o644))

	l := NewLoader()
	require.NoError(t, l.LoadFromDir(dir))

	reloaded := make(chan error, 4)
	w := NewWatcher(dir, l, func(err error) {
		select {
		case reloaded <- err:
		default:
		}
	})
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	renamed := strings.Replace(minimal, "name: tiny", "name: renamed", 1)
	require.NoError(t, os.WriteFile(file, []byte(renamed), 0o644))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-reloaded:
		case <-deadline:
			t.Fatal("watcher did not reload")
		}
		if _, err := l.Get("renamed"); err == nil {
			break
		}
	}

	cancel()
	assert.NoError(t, <-done)
}

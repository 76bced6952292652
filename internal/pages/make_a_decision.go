package pages

import (
	"strings"

	"github.com/terra-clan/approved-premises/internal/form"
)

// Outcome classifies an assessment decision
type Outcome string

const (
	OutcomeNone     Outcome = ""
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
)

var acceptDecisions = []form.Option{
	{Value: "accept", Label: "Accept the application", Hint: "The person is suitable for an Approved Premises placement"},
}

var rejectDecisions = []form.Option{
	{Value: "riskTooLow", Label: "Reject, risk too low", Hint: "The risk is not high enough to need an Approved Premises placement"},
	{Value: "riskTooHigh", Label: "Reject, risk too high", Hint: "The risk cannot be safely managed in an Approved Premises"},
	{Value: "insufficientMoveOnPlan", Label: "Reject, insufficient move on plan"},
	{Value: "needsCannotBeMet", Label: "Reject, the person's needs cannot be met"},
	{Value: "otherReasons", Label: "Reject, other reasons"},
}

// MakeADecision records whether the assessor accepts or rejects the application
type MakeADecision struct {
	base
	decision  string
	rationale string
}

func NewMakeADecision(body form.Answers, ctx form.PageContext) *MakeADecision {
	p := &MakeADecision{
		base: base{
			name:  "make-a-decision",
			title: "Make a decision",
			ctx:   ctx,
		},
		decision:  strings.TrimSpace(body.String("decision")),
		rationale: strings.TrimSpace(body.String("decisionRationale")),
	}
	p.body = form.Answers{}
	if p.decision != "" {
		p.body["decision"] = p.decision
	}
	if p.rationale != "" {
		p.body["decisionRationale"] = p.rationale
	}
	return p
}

func decisionOptions() []form.Option {
	return append(append([]form.Option(nil), acceptDecisions...), rejectDecisions...)
}

func (p *MakeADecision) Fields() []form.Field {
	return []form.Field{
		{Name: "decision", Type: form.Radios, Label: "What is your decision?", Options: decisionOptions(), Required: true},
		{Name: "decisionRationale", Type: form.TextArea, Label: "Provide a rationale for your decision"},
	}
}

func (p *MakeADecision) Body() form.Answers { return p.body.Clone() }

// Outcome reports whether the decision accepts or rejects the application
func (p *MakeADecision) Outcome() Outcome {
	return DecisionOutcome(p.decision)
}

// DecisionOutcome classifies a decision value
func DecisionOutcome(decision string) Outcome {
	for _, o := range acceptDecisions {
		if o.Value == decision {
			return OutcomeAccepted
		}
	}
	for _, o := range rejectDecisions {
		if o.Value == decision {
			return OutcomeRejected
		}
	}
	return OutcomeNone
}

func (p *MakeADecision) Errors() form.FieldErrors {
	var errs form.FieldErrors
	outcome := p.Outcome()
	switch {
	case p.decision == "":
		errs.Add("decision", "You must select one option")
	case outcome == OutcomeNone:
		errs.Add("decision", "Select a valid option")
	case outcome == OutcomeRejected && p.rationale == "":
		errs.Add("decisionRationale", "You must provide a rationale for rejecting the application")
	}
	return errs
}

func (p *MakeADecision) Response() []form.Response {
	label := p.decision
	for _, o := range decisionOptions() {
		if o.Value == p.decision {
			label = o.Label
		}
	}
	out := []form.Response{{Question: "Decision", Answer: label}}
	if p.rationale != "" {
		out = append(out, form.Response{Question: "Rationale", Answer: p.rationale})
	}
	return out
}

func (p *MakeADecision) Next() string { return "" }

func (p *MakeADecision) Previous() string { return "" }

package view

import (
	"strconv"
	"strings"

	"github.com/terra-clan/approved-premises/internal/dates"
	"github.com/terra-clan/approved-premises/internal/models"
	"github.com/terra-clan/approved-premises/internal/services"
)

// Row is a key and value of a summary list, with an optional change link
type Row struct {
	Key        string
	Value      string
	Href       string
	ActionText string
}

// SummaryCard is a titled summary list
type SummaryCard struct {
	Title string
	Rows  []Row
}

// ReviewTask is the task that lists every answer before a record is submitted
const ReviewTask = "check-your-answers"

// SummaryCards lists the answers of a record task by task. Editable records
// get a change link on every answer.
func SummaryCards(rec *services.Record) []SummaryCard {
	var out []SummaryCard
	for _, ts := range rec.Journey.Summary(rec.Context()) {
		if ts.Name == ReviewTask {
			continue
		}
		card := SummaryCard{Title: ts.Title}
		for _, ps := range ts.Pages {
			for _, r := range ps.Responses {
				row := Row{Key: r.Question, Value: r.Answer}
				if rec.Editable {
					row.Href = PagePath(rec.Kind, rec.ID, ts.Name, ps.Page)
					row.ActionText = "Change"
				}
				card.Rows = append(card.Rows, row)
			}
		}
		if len(card.Rows) > 0 {
			out = append(out, card)
		}
	}
	return out
}

func addRow(rows []Row, key, value string) []Row {
	if value == "" {
		return rows
	}
	return append(rows, Row{Key: key, Value: value})
}

// PersonCard shows who a record is about. Restricted people only show their CRN.
func PersonCard(p models.Person, risks *models.PersonRisks) SummaryCard {
	card := SummaryCard{Title: "Person details"}
	card.Rows = addRow(card.Rows, "Name", p.DisplayName())
	card.Rows = addRow(card.Rows, "CRN", p.CRN)
	if p.Type != models.PersonTypeFull {
		return card
	}
	card.Rows = addRow(card.Rows, "Date of birth", dates.FormatDate(p.DateOfBirth, dates.FormatMedium))
	card.Rows = addRow(card.Rows, "NOMS number", p.NomsNumber)
	card.Rows = addRow(card.Rows, "Nationality", p.Nationality)
	card.Rows = addRow(card.Rows, "Sex", p.Sex)
	card.Rows = addRow(card.Rows, "Prison", p.PrisonName)
	card.Rows = addRow(card.Rows, "Tier", risks.TierLabel())
	card.Rows = addRow(card.Rows, "RoSH", risks.OverallRisk())
	if risks != nil && len(risks.Flags.Value) > 0 {
		card.Rows = addRow(card.Rows, "Risk flags", strings.Join(risks.Flags.Value, ", "))
	}
	return card
}

// SpaceBookingCard summarises a space booking
func SpaceBookingCard(b *models.SpaceBooking) SummaryCard {
	card := SummaryCard{Title: "Booking details"}
	card.Rows = addRow(card.Rows, "Approved Premises", b.Premises.Name)
	card.Rows = addRow(card.Rows, "Expected arrival date", dates.FormatDate(b.ExpectedArrivalDate, dates.FormatLong))
	card.Rows = addRow(card.Rows, "Expected departure date", dates.FormatDate(b.ExpectedDepartureDate, dates.FormatLong))
	card.Rows = addRow(card.Rows, "Actual arrival date", dates.FormatDate(b.ActualArrivalDate, dates.FormatLong))
	card.Rows = addRow(card.Rows, "Actual departure date", dates.FormatDate(b.ActualDepartureDate, dates.FormatLong))
	if b.CanonicalArrivalDate != "" && b.CanonicalDepartureDate != "" {
		if start, err := dates.ParseISO(b.CanonicalArrivalDate); err == nil {
			if end, err := dates.ParseISO(b.CanonicalDepartureDate); err == nil {
				card.Rows = addRow(card.Rows, "Length of stay", dates.FormatDuration(dates.DaysBetween(start, end)))
			}
		}
	}
	card.Rows = addRow(card.Rows, "Key worker", b.KeyWorkerName)
	card.Rows = addRow(card.Rows, "Room criteria", strings.Join(b.Characteristics, ", "))
	if b.BookedBy != nil {
		card.Rows = addRow(card.Rows, "Booked by", b.BookedBy.Name)
	}
	if b.Cancellation != nil {
		card.Rows = addRow(card.Rows, "Withdrawn on", dates.FormatDate(b.Cancellation.OccurredAt, dates.FormatLong))
		card.Rows = addRow(card.Rows, "Withdrawal reason", optionLabel(models.CancellationReasons, b.Cancellation.Reason))
		card.Rows = addRow(card.Rows, "Withdrawal notes", b.Cancellation.ReasonNotes)
	}
	return card
}

// PlacementRequestCard summarises what a placement request asks for
func PlacementRequestCard(pr *models.PlacementRequest) SummaryCard {
	card := SummaryCard{Title: "Placement request information"}
	card.Rows = addRow(card.Rows, "Type of AP", apTypeLabel(pr.Type))
	card.Rows = addRow(card.Rows, "Expected arrival", dates.FormatDate(pr.ExpectedArrival, dates.FormatLong))
	card.Rows = addRow(card.Rows, "Expected departure", dates.FormatDate(pr.ExpectedDeparture(), dates.FormatLong))
	card.Rows = addRow(card.Rows, "Length of stay", dates.FormatDuration(pr.Duration))
	card.Rows = addRow(card.Rows, "Postcode area", pr.Location)
	if pr.Radius > 0 {
		card.Rows = addRow(card.Rows, "Distance", strconv.Itoa(pr.Radius)+" miles")
	}
	card.Rows = addRow(card.Rows, "Essential criteria", strings.Join(criteriaLabels(pr.EssentialCriteria), ", "))
	card.Rows = addRow(card.Rows, "Desirable criteria", strings.Join(criteriaLabels(pr.DesirableCriteria), ", "))
	card.Rows = addRow(card.Rows, "Notes", pr.NotesOnPlacement)
	return card
}

var apTypes = map[string]string{
	"normal": "Standard AP",
	"pipe":   "Psychologically Informed Planned Environment (PIPE)",
	"esap":   "Enhanced Security AP (ESAP)",
}

func apTypeLabel(t string) string {
	if l, ok := apTypes[t]; ok {
		return l
	}
	return t
}

var criteria = map[string]string{
	"isPIPE":                  "PIPE",
	"isESAP":                  "ESAP",
	"isWheelchairDesignated":  "Wheelchair accessible",
	"isSingle":                "Single room",
	"isStepFreeDesignated":    "Step-free access",
	"isArsonSuitable":         "Suitable for active arson risk",
	"isSuitedForSexOffenders": "Suitable for sexual offence risk",
	"hasEnSuite":              "En-suite bathroom",
}

// CriterionLabel names a placement criterion
func CriterionLabel(c string) string {
	if l, ok := criteria[c]; ok {
		return l
	}
	return c
}

func criteriaLabels(cs []string) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, CriterionLabel(c))
	}
	return out
}

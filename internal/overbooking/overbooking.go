// Package overbooking finds the periods in which a premises has more bookings
// than beds.
package overbooking

import (
	"fmt"
	"slices"
	"sort"

	"github.com/terra-clan/approved-premises/internal/dates"
	"github.com/terra-clan/approved-premises/internal/models"
)

// Range is a run of consecutive overbooked days
type Range struct {
	Start           string   `json:"startDate"`
	End             string   `json:"endDate"`
	Days            int      `json:"durationInDays"`
	Characteristics []string `json:"characteristics,omitempty"`
}

// Summary merges consecutive overbooked days into ranges. Days are sorted
// first; a missing or non-overbooked day ends the current range.
func Summary(days []models.CapacityDay) []Range {
	sorted := slices.Clone(days)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	var out []Range
	var current *Range
	last := ""

	for _, day := range sorted {
		if !day.IsOverbooked() {
			current = nil
			continue
		}

		if current != nil && last != "" {
			if next, err := dates.AddDays(last, 1); err != nil || next != day.Date {
				current = nil
			}
		}
		if current == nil {
			out = append(out, Range{Start: day.Date})
			current = &out[len(out)-1]
		}

		current.End = day.Date
		current.Days++
		for _, c := range day.CharacteristicAvailability {
			if c.IsOverbooked() && !slices.Contains(current.Characteristics, c.Characteristic) {
				current.Characteristics = append(current.Characteristics, c.Characteristic)
			}
		}
		last = day.Date
	}
	return out
}

// Banner renders one line per range for the overbooking warning
func Banner(ranges []Range) []string {
	lines := make([]string, 0, len(ranges))
	for _, r := range ranges {
		span := dates.FormatDate(r.Start, dates.FormatShort)
		if r.End != r.Start {
			span = fmt.Sprintf("from %s to %s", span, dates.FormatDate(r.End, dates.FormatShort))
		}
		unit := "days"
		if r.Days == 1 {
			unit = "day"
		}
		lines = append(lines, fmt.Sprintf("Overbooked: %s (%d %s)", span, r.Days, unit))
	}
	return lines
}

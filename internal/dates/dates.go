// Package dates parses and formats the dates caseworkers enter and read.
//
// Form date inputs arrive as three separate fields (day, month, year) and are
// stored as ISO 8601 calendar dates. All formatting is in the en-GB style used
// on GOV.UK services.
package dates

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ISOLayout is the layout used for calendar dates exchanged with the API
const ISOLayout = "2006-01-02"

// Format selects one of the display formats
type Format string

const (
	// FormatLong renders "Monday 1 January 2024"
	FormatLong Format = "long"
	// FormatMedium renders "1 January 2024"
	FormatMedium Format = "medium"
	// FormatShort renders "1 Jan 2024"
	FormatShort Format = "short"
)

var layouts = map[Format]string{
	FormatLong:   "Monday 2 January 2006",
	FormatMedium: "2 January 2006",
	FormatShort:  "2 Jan 2006",
}

// Clock returns the current time. Tests replace it.
var Clock = time.Now

// Input is the day/month/year triple submitted by a date field
type Input struct {
	Day   string
	Month string
	Year  string
}

// InputFromFields reads "<key>-day", "<key>-month" and "<key>-year" from the given lookup
func InputFromFields(get func(string) string, key string) Input {
	return Input{
		Day:   strings.TrimSpace(get(key + "-day")),
		Month: strings.TrimSpace(get(key + "-month")),
		Year:  strings.TrimSpace(get(key + "-year")),
	}
}

// InputFromISO splits an ISO date into its parts. Invalid dates give an empty input.
func InputFromISO(iso string) Input {
	t, err := ParseISO(iso)
	if err != nil {
		return Input{}
	}
	return Input{
		Day:   strconv.Itoa(t.Day()),
		Month: strconv.Itoa(int(t.Month())),
		Year:  strconv.Itoa(t.Year()),
	}
}

// IsEmpty reports whether none of the parts were filled in
func (in Input) IsEmpty() bool {
	return in.Day == "" && in.Month == "" && in.Year == ""
}

// IsComplete reports whether every part was filled in
func (in Input) IsComplete() bool {
	return in.Day != "" && in.Month != "" && in.Year != ""
}

// Time converts the input into a date, rejecting impossible dates like 31/2/2024
func (in Input) Time() (time.Time, error) {
	if !in.IsComplete() {
		return time.Time{}, fmt.Errorf("incomplete date")
	}

	if !isDigits(in.Day) {
		return time.Time{}, fmt.Errorf("invalid day %q", in.Day)
	}
	if !isDigits(in.Month) {
		return time.Time{}, fmt.Errorf("invalid month %q", in.Month)
	}
	if len(in.Year) != 4 || !isDigits(in.Year) {
		return time.Time{}, fmt.Errorf("year must have four digits")
	}
	day, _ := strconv.Atoi(in.Day)
	month, _ := strconv.Atoi(in.Month)
	year, _ := strconv.Atoi(in.Year)

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("date out of range")
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, fmt.Errorf("%d/%d/%d is not a real date", day, month, year)
	}
	return t, nil
}

func isDigits(s string) bool {
	if s == "" || len(s) > 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsValid reports whether the input is a real calendar date
func (in Input) IsValid() bool {
	_, err := in.Time()
	return err == nil
}

// ISO returns the ISO form of the input, or "" when it is not a valid date
func (in Input) ISO() string {
	t, err := in.Time()
	if err != nil {
		return ""
	}
	return t.Format(ISOLayout)
}

// ParseISO parses an ISO 8601 date or date-time
func ParseISO(s string) (time.Time, error) {
	if t, err := time.Parse(ISOLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// ToISO formats a time as an ISO calendar date
func ToISO(t time.Time) string {
	return t.Format(ISOLayout)
}

// FormatDate renders an ISO date for display. Unparseable input is returned as is.
func FormatDate(iso string, format Format) string {
	t, err := ParseISO(iso)
	if err != nil {
		return iso
	}
	layout, ok := layouts[format]
	if !ok {
		layout = layouts[FormatLong]
	}
	return t.Format(layout)
}

// FormatDateTime renders an ISO date-time as "1 Jan 2024, 14:05"
func FormatDateTime(iso string) string {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return FormatDate(iso, FormatShort)
	}
	return t.Format("2 Jan 2006, 15:04")
}

// Today returns the current date at midnight UTC
func Today() time.Time {
	now := Clock().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// IsInThePast reports whether the ISO date is before today
func IsInThePast(iso string) bool {
	t, err := ParseISO(iso)
	if err != nil {
		return false
	}
	return t.Before(Today())
}

// IsInTheFuture reports whether the ISO date is after today
func IsInTheFuture(iso string) bool {
	t, err := ParseISO(iso)
	if err != nil {
		return false
	}
	return t.After(Today())
}

// AddDays adds n calendar days to an ISO date
func AddDays(iso string, n int) (string, error) {
	t, err := ParseISO(iso)
	if err != nil {
		return "", err
	}
	return ToISO(t.AddDate(0, 0, n)), nil
}

// DaysBetween returns the number of whole days from start to end
func DaysBetween(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours() / 24)
}

// Duration is a length of stay split into weeks and days
type Duration struct {
	Weeks int
	Days  int
}

// WeeksAndDays splits a number of days into whole weeks and remaining days
func WeeksAndDays(days int) Duration {
	return Duration{Weeks: days / 7, Days: days % 7}
}

// TotalDays returns the duration in days
func (d Duration) TotalDays() int {
	return d.Weeks*7 + d.Days
}

// String renders "2 weeks, 3 days"
func (d Duration) String() string {
	var parts []string
	if d.Weeks > 0 {
		parts = append(parts, plural(d.Weeks, "week"))
	}
	if d.Days > 0 || d.Weeks == 0 {
		parts = append(parts, plural(d.Days, "day"))
	}
	return strings.Join(parts, ", ")
}

// FormatDuration renders a number of days as weeks and days
func FormatDuration(days int) string {
	return WeeksAndDays(days).String()
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// Range is an inclusive span of calendar dates
type Range struct {
	Start time.Time
	End   time.Time
}

// Days returns the number of days in the range, counting both ends
func (r Range) Days() int {
	return DaysBetween(r.Start, r.End) + 1
}

// Contains reports whether t falls inside the range
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// String renders "1 Jan 2024 to 5 Jan 2024"
func (r Range) String() string {
	return fmt.Sprintf("%s to %s", r.Start.Format(layouts[FormatShort]), r.End.Format(layouts[FormatShort]))
}

package wellness

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

const DateLayout = "2006-01-02"

// Date is a calendar day in UTC.
type Date struct {
	t time.Time
}

// ParseDate accepts only the YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	if len(s) != len(DateLayout) {
		return Date{}, fmt.Errorf("%w: date [%s] must be in YYYY-MM-DD format", ErrInvalidInput, s)
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("%w: date [%s]: %s", ErrInvalidInput, s, err)
	}
	return Date{t: t}, nil
}

func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DateOf returns the UTC calendar day of t.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return Date{t: time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)}
}

func (d Date) IsZero() bool {
	return d.t.IsZero()
}

func (d Date) Time() time.Time {
	return d.t
}

func (d Date) String() string {
	if d.t.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

func (d Date) Before(other Date) bool {
	return d.t.Before(other.t)
}

func (d Date) After(other Date) bool {
	return d.t.After(other.t)
}

func (d Date) Equal(other Date) bool {
	return d.t.Equal(other.t)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: date must be a string", ErrInvalidInput)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDates parses, de-duplicates and sorts the given dates.
func ParseDates(raw []string) ([]Date, error) {
	dates := make([]Date, 0, len(raw))
	for _, s := range raw {
		d, err := ParseDate(s)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return UniqueSorted(dates), nil
}

func UniqueSorted(dates []Date) []Date {
	seen := make(map[string]bool, len(dates))
	unique := make([]Date, 0, len(dates))
	for _, d := range dates {
		if seen[d.String()] {
			continue
		}
		seen[d.String()] = true
		unique = append(unique, d)
	}
	sort.Slice(unique, func(i, j int) bool {
		return unique[i].Before(unique[j])
	})
	return unique
}

// TrailingDays returns the n days ending at (and including) end, oldest first.
func TrailingDays(end Date, n int) []Date {
	dates := make([]Date, 0, n)
	for i := n - 1; i >= 0; i-- {
		dates = append(dates, end.AddDays(-i))
	}
	return dates
}

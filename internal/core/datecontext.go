package core

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// DateContext restricts a computation to specific months and years.
// A nil context, or one with IsDateSpecific unset, filters nothing.
type DateContext struct {
	IsDateSpecific bool    `json:"isDateSpecific"`
	Months         []Value `json:"months,omitempty"`
	Years          []Value `json:"years,omitempty"`
}

// Active reports whether the context filters anything at all.
func (c *DateContext) Active() bool {
	return c != nil && c.IsDateSpecific
}

// Filter returns the records that survive the context, in input order.
func (c *DateContext) Filter(records []TransactionRecord) []TransactionRecord {
	entries, _ := prepare(records)
	kept := c.apply(entries)
	out := make([]TransactionRecord, len(kept))
	for i, e := range kept {
		out[i] = e.record
	}
	return out
}

// apply drops undated entries, then filters by month, then by year. An
// empty normalized month or year set leaves that step out.
func (c *DateContext) apply(entries []entry) []entry {
	if !c.Active() {
		return entries
	}

	kept := make([]entry, 0, len(entries))
	for _, e := range entries {
		if e.dated {
			kept = append(kept, e)
		}
	}

	if months := MonthSet(c.Months); len(months) > 0 {
		kept = keep(kept, func(e entry) bool {
			_, ok := months[int(e.date.Month())]
			return ok
		})
	}

	if years := YearSet(c.Years); len(years) > 0 {
		kept = keep(kept, func(e entry) bool {
			_, ok := years[e.date.Year()]
			return ok
		})
	}

	return kept
}

func keep(entries []entry, pred func(entry) bool) []entry {
	out := entries[:0:0]
	for _, e := range entries {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

// MonthSet normalizes month selectors. Strings match on their first three
// letters, case-insensitively; integers are taken as month numbers.
// Anything else is discarded.
func MonthSet(months []Value) map[int]struct{} {
	set := make(map[int]struct{}, len(months))
	for _, m := range months {
		if s, ok := m.Str(); ok {
			if n, ok := monthsByPrefix[prefix(strings.ToLower(s), 3)]; ok {
				set[int(n)] = struct{}{}
			}
			continue
		}
		if n, ok := m.integral(); ok {
			set[n] = struct{}{}
		}
	}
	return set
}

// YearSet normalizes year selectors. Two character strings are years in the
// 2000s, other strings are read as full years, integers are used as they are.
// Selectors that are not integers are discarded.
func YearSet(years []Value) map[int]struct{} {
	set := make(map[int]struct{}, len(years))
	for _, y := range years {
		if s, ok := y.Str(); ok {
			n, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				continue
			}
			if utf8.RuneCountInString(s) == 2 {
				n += 2000
			}
			set[n] = struct{}{}
			continue
		}
		if n, ok := y.integral(); ok {
			set[n] = struct{}{}
		}
	}
	return set
}

// prefix returns the first n runes of s.
func prefix(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

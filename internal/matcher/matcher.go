// Package matcher filters, sorts and paginates records against MatchCriteria.
package matcher

import (
	"sort"
	"strings"
	"time"

	"github.com/memberdesk/backend/internal/domain"
	"github.com/memberdesk/backend/internal/lexicon"
)

// DateLayouts are the record date formats the matcher understands.
var DateLayouts = []string{"2006-01-02 15:04", "2006-01-02 15:04:05", "2006-01-02", "2006.01.02", "2006/01/02"}

// ParseDate parses a record date in any of DateLayouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Match runs the fixed pipeline: filter, sort, paginate. The input slice is
// not modified. A zero Limit returns everything from Offset on.
func Match(records []domain.Record, c *domain.MatchCriteria) domain.MatchResult {
	if c == nil {
		c = domain.NewCriteria()
	}

	filtered := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if matches(r, c) {
			filtered = append(filtered, r)
		}
	}

	sortRecords(filtered, c.Sort)

	total := len(filtered)
	start := min(max(c.Offset, 0), total)
	end := total
	if c.Limit > 0 {
		end = min(start+c.Limit, total)
	}

	page := make([]domain.Record, end-start)
	copy(page, filtered[start:end])
	return domain.MatchResult{
		Records: page,
		Total:   total,
		HasMore: end < total,
	}
}

func matches(r domain.Record, c *domain.MatchCriteria) bool {
	for f, want := range c.Equality {
		if !fieldEquals(r.Get(f), want, c.DigitNormalized[f], c.Normalized[f]) {
			return false
		}
	}

	if c.MemberName != "" && strings.TrimSpace(r.Get(domain.FieldName)) != strings.TrimSpace(c.MemberName) {
		return false
	}

	if len(c.Keywords) > 0 && !keywordsMatch(r, c) {
		return false
	}

	if c.DateRange != nil {
		t, ok := ParseDate(r.Get(c.DateRange.Field))
		if !ok {
			return false
		}
		if !c.DateRange.Start.IsZero() && t.Before(c.DateRange.Start) {
			return false
		}
		if !c.DateRange.End.IsZero() && t.After(c.DateRange.End) {
			return false
		}
	}
	return true
}

func fieldEquals(got, want string, digits, normalized bool) bool {
	switch {
	case digits:
		d := lexicon.Digits(want)
		return d != "" && lexicon.Digits(got) == d
	case normalized:
		return lexicon.NormalizeSpacing(got) == lexicon.NormalizeSpacing(want)
	default:
		return strings.TrimSpace(got) == strings.TrimSpace(want)
	}
}

func keywordsMatch(r domain.Record, c *domain.MatchCriteria) bool {
	fields := c.KeywordFields
	if len(fields) == 0 {
		fields = []domain.Field{domain.FieldContent}
	}
	var b strings.Builder
	for _, f := range fields {
		b.WriteString(r.Get(f))
		b.WriteByte('\n')
	}
	haystack := strings.ToLower(b.String())

	hits := 0
	for _, kw := range c.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(haystack, kw) {
			hits++
			if c.Mode != domain.ModeAll {
				return true
			}
		} else if c.Mode == domain.ModeAll {
			return false
		}
	}
	return c.Mode == domain.ModeAll && hits > 0
}

// sortRecords orders records stably. Without a sort field records sort by
// name ascending. Date fields compare as dates; unparsable dates go last.
func sortRecords(records []domain.Record, spec domain.SortSpec) {
	field := spec.Field
	if field == "" {
		field = domain.FieldName
	}

	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].Get(field), records[j].Get(field)

		ta, okA := ParseDate(a)
		tb, okB := ParseDate(b)
		if okA || okB {
			if okA != okB {
				return okA
			}
			if spec.Descending {
				return ta.After(tb)
			}
			return ta.Before(tb)
		}

		if spec.Descending {
			return a > b
		}
		return a < b
	})
}

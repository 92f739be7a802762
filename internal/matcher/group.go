package matcher

import "github.com/memberdesk/backend/internal/domain"

// Group is the records sharing one value of a field.
type Group struct {
	Key     string          `json:"key"`
	Records []domain.Record `json:"records"`
}

// GroupBy splits records by field, keeping record order within each group.
// Keys listed in order come first in that order, even when empty; other
// keys follow in first-seen order.
func GroupBy(records []domain.Record, field domain.Field, order []string) []Group {
	index := make(map[string]int)
	groups := make([]Group, 0, len(order))
	for _, key := range order {
		index[key] = len(groups)
		groups = append(groups, Group{Key: key, Records: []domain.Record{}})
	}

	for _, r := range records {
		key := r.Get(field)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key, Records: []domain.Record{}})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	return groups
}

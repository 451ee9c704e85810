package pipeline

import (
	"log/slog"

	"hymnidx/internal"
)

// OutputTable is an insertion-ordered key -> page/number mapping. A repeated
// key overwrites the earlier value but keeps the position of its first
// occurrence.
type OutputTable struct {
	keys       []string
	values     map[string]int
	duplicates int
	log        *slog.Logger
}

func NewOutputTable(log *slog.Logger) *OutputTable {
	return &OutputTable{values: map[string]int{}, log: log}
}

// Insert stores value under key and reports whether an existing value was
// replaced.
func (t *OutputTable) Insert(key string, value int) bool {
	old, exists := t.values[key]
	t.values[key] = value
	if !exists {
		t.keys = append(t.keys, key)
		return false
	}
	t.duplicates++
	t.log.Warn("duplicate key overwritten", "key", key, "old", old, "new", value)
	return true
}

func (t *OutputTable) Get(key string) (int, bool) {
	v, ok := t.values[key]
	return v, ok
}

func (t *OutputTable) Len() int {
	return len(t.keys)
}

func (t *OutputTable) Duplicates() int {
	return t.duplicates
}

func (t *OutputTable) Entries() []internal.Entry {
	out := make([]internal.Entry, 0, len(t.keys))
	for _, k := range t.keys {
		out = append(out, internal.Entry{Key: k, Value: t.values[k]})
	}
	return out
}

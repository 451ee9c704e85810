// Package lookup answers queries against a stored index table: exact keys,
// substring search and, for calendar tables, date and fuzzy celebration
// lookups.
package lookup

import (
	"strings"
	"time"

	"hymnidx/internal"
	"hymnidx/internal/util"
)

// DateLayout is the date prefix of every calendar key.
const DateLayout = "January 02, 2006"

const DefaultThreshold = 70

type Match struct {
	Key   string
	Page  int
	Score int
}

type dated struct {
	entry       internal.Entry
	dates       []string
	celebration string
}

type Table struct {
	info    internal.TableInfo
	entries []internal.Entry
	index   map[string]int
	dated   []dated
}

func New(info internal.TableInfo, entries []internal.Entry) *Table {
	t := &Table{info: info, entries: entries, index: make(map[string]int, len(entries))}
	for _, e := range entries {
		t.index[e.Key] = e.Value
		if d, ok := parseCalendarKey(e); ok {
			t.dated = append(t.dated, d)
		}
	}
	return t
}

// parseCalendarKey splits "May 14 or May 17, 2026 - Ascension of the Lord"
// into its dates ("May 14, 2026", "May 17, 2026") and celebration.
func parseCalendarKey(e internal.Entry) (dated, bool) {
	head, celebration, ok := strings.Cut(e.Key, " - ")
	if !ok {
		return dated{}, false
	}
	i := strings.LastIndex(head, ", ")
	if i < 0 {
		return dated{}, false
	}
	days, year := head[:i], head[i+2:]

	d := dated{entry: e, celebration: celebration}
	for _, day := range strings.Split(days, " or ") {
		date := day + ", " + year
		if _, err := time.Parse(DateLayout, date); err != nil {
			return dated{}, false
		}
		d.dates = append(d.dates, date)
	}
	return d, true
}

func (t *Table) Info() internal.TableInfo {
	return t.info
}

func (t *Table) Entries() []internal.Entry {
	return t.entries
}

func (t *Table) Get(key string) (int, bool) {
	v, ok := t.index[key]
	return v, ok
}

// Search returns entries whose key contains query, ignoring case, in
// document order.
func (t *Table) Search(query string) []internal.Entry {
	q := strings.ToLower(query)
	out := []internal.Entry{}
	for _, e := range t.entries {
		if strings.Contains(strings.ToLower(e.Key), q) {
			out = append(out, e)
		}
	}
	return out
}

func (t *Table) forDate(date time.Time) []dated {
	want := date.Format(DateLayout)
	var out []dated
	for _, d := range t.dated {
		for _, candidate := range d.dates {
			if candidate == want {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

// AllForDate returns celebration -> page entries for every celebration on
// date.
func (t *Table) AllForDate(date time.Time) []internal.Entry {
	out := []internal.Entry{}
	for _, d := range t.forDate(date) {
		out = append(out, internal.Entry{Key: d.celebration, Value: d.entry.Value})
	}
	return out
}

// PageByDate finds the page for a celebration on date. An empty celebration
// picks the first entry of the day; otherwise the celebration must appear in
// the key ignoring case, or with fuzzy set, be similar enough to it.
func (t *Table) PageByDate(date time.Time, celebration string, fuzzy bool, threshold int) (int, bool) {
	if fuzzy && celebration != "" {
		m, ok := t.Fuzzy(date, celebration, threshold)
		return m.Page, ok
	}

	candidates := t.forDate(date)
	if len(candidates) == 0 {
		return 0, false
	}
	if celebration == "" {
		return candidates[0].entry.Value, true
	}
	want := strings.ToLower(celebration)
	for _, d := range candidates {
		if strings.Contains(strings.ToLower(d.entry.Key), want) {
			return d.entry.Value, true
		}
	}
	return 0, false
}

// Fuzzy picks the celebration on date that best matches name. A lone
// candidate wins outright with score 100.
func (t *Table) Fuzzy(date time.Time, name string, threshold int) (Match, bool) {
	candidates := t.forDate(date)
	if len(candidates) == 0 {
		return Match{}, false
	}
	if len(candidates) == 1 {
		c := candidates[0]
		return Match{Key: c.entry.Key, Page: c.entry.Value, Score: 100}, true
	}

	best := Match{Score: -1}
	for _, c := range candidates {
		score := util.Similarity(name, c.celebration)
		if score > best.Score {
			best = Match{Key: c.entry.Key, Page: c.entry.Value, Score: score}
		}
	}
	if best.Score < threshold {
		return Match{}, false
	}
	return best, true
}

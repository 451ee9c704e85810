package playlist

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"hymnidx/internal"
	"hymnidx/internal/util"
)

const series = "Respond & Acclaim"

// VideoNamePsalm is the playlist title of a feast's psalm setting.
func VideoNamePsalm(feast string, year int) string {
	return fmt.Sprintf("%s %d - %s - Psalm", series, year, feast)
}

// VideoNameAcclamation is the playlist title of a feast's gospel acclamation.
func VideoNameAcclamation(feast string, year int) string {
	return fmt.Sprintf("%s %d - %s - Gospel Acclamation", series, year, feast)
}

// VideoIndex keys a playlist by the part of each title after "<year> -",
// e.g. "Easter 2 - Psalm".
type VideoIndex struct {
	Year   int
	names  []string
	byName map[string]internal.Video
	feasts []string
}

func BuildVideoIndex(videos []internal.Video, year int) *VideoIndex {
	idx := &VideoIndex{Year: year, byName: map[string]internal.Video{}}
	marker := fmt.Sprintf("%d -", year)
	seenFeast := map[string]struct{}{}

	for _, v := range videos {
		i := strings.Index(v.Title, marker)
		if i < 0 {
			continue
		}
		name := strings.TrimSpace(v.Title[i+len(marker):])
		if name == "" {
			continue
		}
		if _, dup := idx.byName[name]; !dup {
			idx.names = append(idx.names, name)
		}
		idx.byName[name] = v

		feast, _, _ := strings.Cut(name, " - ")
		feast = strings.TrimSpace(feast)
		if _, ok := seenFeast[feast]; !ok {
			seenFeast[feast] = struct{}{}
			idx.feasts = append(idx.feasts, feast)
		}
	}
	return idx
}

// Names lists title suffixes in playlist order.
func (x *VideoIndex) Names() []string {
	return x.names
}

// Feasts lists distinct feast names in playlist order.
func (x *VideoIndex) Feasts() []string {
	return x.feasts
}

func (x *VideoIndex) Get(name string) (internal.Video, bool) {
	v, ok := x.byName[name]
	return v, ok
}

type FeastVideos struct {
	Feast       string
	Psalm       *internal.Video
	Acclamation *internal.Video
}

// ForFeast returns the psalm and acclamation videos of a feast; either may be
// missing from the playlist.
func (x *VideoIndex) ForFeast(feast string) (FeastVideos, bool) {
	out := FeastVideos{Feast: feast}
	if v, ok := x.byName[feast+" - Psalm"]; ok {
		out.Psalm = &v
	}
	if v, ok := x.byName[feast+" - Gospel Acclamation"]; ok {
		out.Acclamation = &v
	}
	return out, out.Psalm != nil || out.Acclamation != nil
}

// ForCelebration resolves a calendar celebration through the feast mapping.
func (x *VideoIndex) ForCelebration(celebration string, mapping FeastMapping) (FeastVideos, bool) {
	feast, ok := mapping[celebration]
	if !ok || feast == "" {
		return FeastVideos{}, false
	}
	return x.ForFeast(feast)
}

// FeastMapping maps a calendar celebration ("Second Sunday of Easter (or
// Sunday of Divine Mercy)") to the playlist's feast name ("Easter 2").
type FeastMapping map[string]string

func LoadFeastMapping(path string) (FeastMapping, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	mapping := FeastMapping{}
	if err := yaml.Unmarshal(blob, &mapping); err != nil {
		return nil, fmt.Errorf("decode feast mapping %s: %w", path, err)
	}
	return mapping, nil
}

// SaveFeastMapping writes the mapping in the order of celebrations, which
// is usually the calendar order.
func SaveFeastMapping(path string, celebrations []string, mapping FeastMapping) error {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, c := range celebrations {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: c},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: mapping[c]},
		)
	}
	blob, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	return os.WriteFile(path, blob, 0o644)
}

// SuggestFeastMapping proposes a feast for every celebration by name
// similarity. Celebrations scoring below threshold map to "" for a human to
// fill in.
func SuggestFeastMapping(celebrations, feasts []string, threshold int) FeastMapping {
	out := FeastMapping{}
	for _, c := range celebrations {
		best, bestScore := "", -1
		for _, f := range feasts {
			if score := util.Similarity(f, c); score > bestScore {
				best, bestScore = f, score
			}
		}
		if bestScore < threshold {
			best = ""
		}
		out[c] = best
	}
	return out
}

// Celebrations extracts the distinct celebration names of calendar keys in
// page order.
func Celebrations(entries []internal.Entry) []string {
	sorted := append([]internal.Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Value < sorted[j].Value })

	seen := map[string]struct{}{}
	out := []string{}
	for _, e := range sorted {
		_, celebration, ok := strings.Cut(e.Key, " - ")
		if !ok {
			continue
		}
		if _, dup := seen[celebration]; dup {
			continue
		}
		seen[celebration] = struct{}{}
		out = append(out, celebration)
	}
	return out
}

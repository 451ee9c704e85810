package internal

type SourceKind string

const (
	SourceText     SourceKind = "txt"
	SourcePDF      SourceKind = "pdf"
	SourceDOCX     SourceKind = "docx"
	SourceMarkdown SourceKind = "md"
	SourceHTML     SourceKind = "html"
	SourceEmail    SourceKind = "eml"
	SourceXLSX     SourceKind = "xlsx"
)

type TableKind string

const (
	KindHymnal   TableKind = "hymnal"
	KindCalendar TableKind = "calendar"
)

// Entry is one serialized row of a lookup table.
type Entry struct {
	Key   string `yaml:"key" json:"key"`
	Value int    `yaml:"value" json:"value"`
}

type HymnRecord struct {
	Title  string
	Number int
}

// DateHead is the parsed date of a calendar record-start line. AltMonth and
// AltDay are set only for the "<Month> <Day> or <Month> <Day>" form.
type DateHead struct {
	Month    string
	Day      int
	AltMonth string
	AltDay   int
}

func (h DateHead) HasAlternate() bool {
	return h.AltMonth != "" && h.AltDay > 0
}

type CalendarRecord struct {
	Head        DateHead
	Celebration string
	Page        int
}

type TableInfo struct {
	Name      string
	Kind      TableKind
	Year      int
	Source    string
	Entries   int
	UpdatedAt string
}

type Video struct {
	PlaylistID string `yaml:"playlist_id" json:"playlistId"`
	Position   int    `yaml:"position" json:"position"`
	VideoID    string `yaml:"video_id" json:"videoId"`
	Title      string `yaml:"title" json:"title"`
	URL        string `yaml:"url" json:"url"`
}

type RunStats struct {
	LinesRead             int `json:"linesRead"`
	LinesDropped          int `json:"linesDropped"`
	ContinuationsDropped  int `json:"continuationsDropped"`
	EmptyHeads            int `json:"emptyHeads"`
	Records               int `json:"records"`
	DuplicatesOverwritten int `json:"duplicatesOverwritten"`
	OrdinalFailures       int `json:"ordinalFailures"`
	Entries               int `json:"entries"`
}

type RunRow struct {
	ID        string
	TableName string
	Stats     RunStats
	CreatedAt string
}

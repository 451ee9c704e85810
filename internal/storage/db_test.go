package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"hymnidx/internal"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestReplaceTableKeepsOrder(t *testing.T) {
	db := openTestDB(t)

	info := internal.TableInfo{Name: "gather", Kind: internal.KindHymnal, Source: "gather.txt"}
	first := []internal.Entry{{Key: "Zion", Value: 3}, {Key: "A Celtic Rune", Value: 664}}
	if err := db.ReplaceTable(info, first); err != nil {
		t.Fatal(err)
	}
	second := []internal.Entry{{Key: "Morning Has Broken", Value: 680}, {Key: "A Celtic Rune", Value: 664}}
	if err := db.ReplaceTable(info, second); err != nil {
		t.Fatal(err)
	}

	entries, err := db.LoadEntries("gather")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("len=%d", len(entries))
	}
	if entries[0].Key != "Morning Has Broken" || entries[1].Value != 664 {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	got, err := db.MustTable("gather")
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != internal.KindHymnal || got.Entries != 2 || got.Source != "gather.txt" {
		t.Fatalf("unexpected info: %+v", got)
	}
}

func TestMustTableNotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := db.MustTable("missing")
	if !errors.Is(err, internal.ErrNotFound) {
		t.Fatalf("err=%v", err)
	}
}

func TestListTables(t *testing.T) {
	db := openTestDB(t)
	for _, info := range []internal.TableInfo{
		{Name: "ra-index", Kind: internal.KindCalendar, Year: 2026},
		{Name: "gather", Kind: internal.KindHymnal},
	} {
		if err := db.ReplaceTable(info, nil); err != nil {
			t.Fatal(err)
		}
	}
	tables, err := db.ListTables()
	if err != nil {
		t.Fatal(err)
	}
	if len(tables) != 2 || tables[0].Name != "gather" || tables[1].Year != 2026 {
		t.Fatalf("unexpected tables: %+v", tables)
	}
}

func TestRuns(t *testing.T) {
	db := openTestDB(t)
	runs := []internal.RunRow{
		{ID: "01A", TableName: "gather", Stats: internal.RunStats{Records: 1}},
		{ID: "01B", TableName: "gather", Stats: internal.RunStats{Records: 2, DuplicatesOverwritten: 1}},
	}
	for _, r := range runs {
		if err := db.InsertRun(r); err != nil {
			t.Fatal(err)
		}
	}
	got, err := db.ListRuns("gather", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "01B" || got[0].Stats.DuplicatesOverwritten != 1 {
		t.Fatalf("unexpected runs: %+v", got)
	}
}

func TestVideosAndMetadata(t *testing.T) {
	db := openTestDB(t)
	videos := []internal.Video{
		{PlaylistID: "PL1", VideoID: "b", Position: 2, Title: "Second", URL: "https://www.youtube.com/watch?v=b"},
		{PlaylistID: "PL1", VideoID: "a", Position: 1, Title: "First", URL: "https://www.youtube.com/watch?v=a"},
	}
	if err := db.UpsertVideos(videos); err != nil {
		t.Fatal(err)
	}
	videos[0].Title = "Second (renamed)"
	if err := db.UpsertVideos(videos[:1]); err != nil {
		t.Fatal(err)
	}
	got, err := db.ListVideos("PL1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].VideoID != "a" || got[1].Title != "Second (renamed)" {
		t.Fatalf("unexpected videos: %+v", got)
	}

	if v, err := db.GetMetadata("missing"); err != nil || v != nil {
		t.Fatalf("v=%v err=%v", v, err)
	}
	if err := db.SetMetadata("k", "1"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMetadata("k", "2"); err != nil {
		t.Fatal(err)
	}
	v, err := db.GetMetadata("k")
	if err != nil || v == nil || *v != "2" {
		t.Fatalf("v=%v err=%v", v, err)
	}
}

package playlist

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"hymnidx/internal"
	"hymnidx/internal/storage"
)

// Lister is the part of Client the sync service needs.
type Lister interface {
	ListPlaylist(ctx context.Context, playlistID string) ([]internal.Video, error)
}

type SyncService struct {
	db     *storage.DB
	lister Lister
	log    *slog.Logger
}

func NewSyncService(db *storage.DB, lister Lister, log *slog.Logger) *SyncService {
	return &SyncService{db: db, lister: lister, log: log}
}

type SyncResult struct {
	PlaylistID string
	Videos     []internal.Video
	Index      *VideoIndex
	Output     string
}

// Sync fetches a playlist, stores its videos and, when output is set,
// writes the title-suffix -> video map as YAML.
func (s *SyncService) Sync(ctx context.Context, playlistURL string, year int, output string) (SyncResult, error) {
	playlistID, err := PlaylistIDFromURL(playlistURL)
	if err != nil {
		return SyncResult{}, err
	}

	videos, err := s.lister.ListPlaylist(ctx, playlistID)
	if err != nil {
		return SyncResult{}, err
	}
	if err := s.db.UpsertVideos(videos); err != nil {
		return SyncResult{}, fmt.Errorf("store videos: %w", err)
	}
	_ = s.db.SetMetadata("playlist.last_sync."+playlistID, time.Now().UTC().Format(time.RFC3339))

	idx := BuildVideoIndex(videos, year)
	res := SyncResult{PlaylistID: playlistID, Videos: videos, Index: idx}

	if output != "" {
		if err := WriteVideoMap(idx, output); err != nil {
			return res, err
		}
		res.Output = output
	}

	s.log.Info("playlist synced", "playlist", playlistID, "videos", len(videos), "named", len(idx.Names()), "feasts", len(idx.Feasts()))
	return res, nil
}

// Stored rebuilds the index of a previously synced playlist without
// touching the network.
func (s *SyncService) Stored(playlistURL string, year int) (*VideoIndex, error) {
	playlistID, err := PlaylistIDFromURL(playlistURL)
	if err != nil {
		return nil, err
	}
	videos, err := s.db.ListVideos(playlistID)
	if err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, fmt.Errorf("playlist %s not synced: %w", playlistID, internal.ErrNotFound)
	}
	return BuildVideoIndex(videos, year), nil
}

type videoRecord struct {
	Title    string `yaml:"title"`
	Index    int    `yaml:"index"`
	ID       string `yaml:"id"`
	URL      string `yaml:"url"`
	Playlist string `yaml:"playlist"`
}

// WriteVideoMap writes "Easter 2 - Psalm: {title, index, id, url}" entries in
// playlist order.
func WriteVideoMap(idx *VideoIndex, path string) error {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range idx.Names() {
		v, _ := idx.Get(name)
		var value yaml.Node
		if err := value.Encode(videoRecord{Title: v.Title, Index: v.Position, ID: v.VideoID, URL: v.URL, Playlist: v.PlaylistID}); err != nil {
			return err
		}
		root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}, &value)
	}

	blob, err := yaml.Marshal(root)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, blob, 0o644)
}

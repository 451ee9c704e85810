package playlist

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"google.golang.org/api/option"

	"hymnidx/internal"
	"hymnidx/internal/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, payload any) *http.Response {
	blob, _ := json.Marshal(payload)
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(string(blob))),
		Header:     header,
	}
}

func item(title, videoID string) map[string]any {
	return map[string]any{
		"snippet":        map[string]any{"title": title, "resourceId": map[string]any{"videoId": videoID}},
		"contentDetails": map[string]any{"videoId": videoID},
	}
}

func testClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	cfg := config.Default()
	cfg.YouTubeRateLimitRPS = 1000
	client, err := newClient(context.Background(), cfg,
		option.WithHTTPClient(&http.Client{Transport: rt}),
		option.WithEndpoint("https://example.test/"),
	)
	if err != nil {
		t.Fatal(err)
	}
	client.sleep = func(time.Duration) {}
	return client
}

func TestListPlaylistWithRetry(t *testing.T) {
	attempt := 0
	client := testClient(t, func(r *http.Request) (*http.Response, error) {
		if !strings.HasSuffix(r.URL.Path, "/playlistItems") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("playlistId"); got != "PL123" {
			t.Fatalf("playlistId=%q", got)
		}
		attempt++
		switch attempt {
		case 1:
			return jsonResponse(http.StatusServiceUnavailable, map[string]any{"error": map[string]any{"code": 503, "message": "backend"}}), nil
		case 2:
			return jsonResponse(http.StatusOK, map[string]any{
				"items": []any{
					item("Respond & Acclaim 2026 - Introduction", "v0"),
					item("Private video", "gone"),
					item("Respond & Acclaim 2026 - Advent 1 - Psalm", "v1"),
				},
				"nextPageToken": "p2",
			}), nil
		default:
			if got := r.URL.Query().Get("pageToken"); got != "p2" {
				t.Fatalf("pageToken=%q", got)
			}
			return jsonResponse(http.StatusOK, map[string]any{
				"items": []any{item("Respond & Acclaim 2026 - Advent 1 - Gospel Acclamation", "v2")},
			}), nil
		}
	})

	videos, err := client.ListPlaylist(context.Background(), "PL123")
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 3 {
		t.Fatalf("len=%d", len(videos))
	}
	if videos[2].Position != 3 || videos[2].URL != "https://www.youtube.com/watch?v=v2" || videos[2].PlaylistID != "PL123" {
		t.Fatalf("unexpected video: %+v", videos[2])
	}
	if attempt != 3 {
		t.Fatalf("attempts=%d", attempt)
	}
}

func TestListPlaylistDoesNotRetryClientErrors(t *testing.T) {
	attempt := 0
	client := testClient(t, func(r *http.Request) (*http.Response, error) {
		attempt++
		return jsonResponse(http.StatusNotFound, map[string]any{"error": map[string]any{"code": 404, "message": "playlist not found"}}), nil
	})
	if _, err := client.ListPlaylist(context.Background(), "PL404"); err == nil {
		t.Fatal("expected error")
	}
	if attempt != 1 {
		t.Fatalf("attempts=%d", attempt)
	}
}

func TestListPlaylistEmpty(t *testing.T) {
	client := testClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, map[string]any{"items": []any{item("Deleted video", "x")}}), nil
	})
	_, err := client.ListPlaylist(context.Background(), "PL0")
	if !errors.Is(err, internal.ErrNotFound) {
		t.Fatalf("err=%v", err)
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	cfg := config.Default()
	if _, err := NewClient(context.Background(), cfg); err == nil {
		t.Fatal("expected error without credentials")
	}
	cfg.YouTubeRefreshToken = "refresh"
	if _, err := NewClient(context.Background(), cfg); err == nil {
		t.Fatal("expected error without client id")
	}
}

func TestPlaylistIDFromURL(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "https://www.youtube.com/playlist?list=PLabc", want: "PLabc"},
		{in: "  https://www.youtube.com/watch?v=xyz&list=PLdef&index=2 ", want: "PLdef"},
		{in: "PL" + strings.Repeat("a", 32), want: "PL" + strings.Repeat("a", 32)},
		{in: "https://www.youtube.com/watch?v=xyz", wantErr: true},
		{in: "https://www.youtube.com/playlist?list=", wantErr: true},
	}
	for _, tc := range cases {
		got, err := PlaylistIDFromURL(tc.in)
		if tc.wantErr {
			if !errors.Is(err, internal.ErrInvalidInput) {
				t.Fatalf("%q: err=%v", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%q: got %q err=%v", tc.in, got, err)
		}
	}
}

func TestRateLimiterHonoursContext(t *testing.T) {
	r := NewRateLimiter(1)
	if err := r.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v", err)
	}
}

// Package playlist lists the videos of a YouTube playlist and maps them onto
// the celebrations of a calendar index.
package playlist

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"hymnidx/internal"
	"hymnidx/internal/config"
)

const pageSize = 50

// Titles YouTube substitutes for entries that can no longer be watched.
var unavailableTitles = map[string]struct{}{
	"Deleted video": {},
	"Private video": {},
}

type Client struct {
	service    *youtube.Service
	limiter    *RateLimiter
	timeout    time.Duration
	maxRetries int
	sleep      func(time.Duration)
}

// NewClient authenticates with an OAuth refresh token when one is
// configured and falls back to an API key otherwise.
func NewClient(ctx context.Context, cfg config.Config) (*Client, error) {
	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(cfg.YouTubeRefreshToken) != "":
		if err := cfg.Require("YOUTUBE_CLIENT_ID", cfg.YouTubeClientID); err != nil {
			return nil, err
		}
		if err := cfg.Require("YOUTUBE_CLIENT_SECRET", cfg.YouTubeClientSecret); err != nil {
			return nil, err
		}
		oauthCfg := &oauth2.Config{
			ClientID:     cfg.YouTubeClientID,
			ClientSecret: cfg.YouTubeClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{youtube.YoutubeReadonlyScope},
		}
		tokenSource := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.YouTubeRefreshToken})
		opts = append(opts, option.WithTokenSource(tokenSource))
	default:
		if err := cfg.Require("YOUTUBE_API_KEY", cfg.YouTubeAPIKey); err != nil {
			return nil, err
		}
		opts = append(opts, option.WithAPIKey(cfg.YouTubeAPIKey))
	}
	return newClient(ctx, cfg, opts...)
}

func newClient(ctx context.Context, cfg config.Config, opts ...option.ClientOption) (*Client, error) {
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}
	retries := cfg.YouTubeMaxRetries
	if retries < 1 {
		retries = 1
	}
	return &Client{
		service:    svc,
		limiter:    NewRateLimiter(cfg.YouTubeRateLimitRPS),
		timeout:    time.Duration(cfg.YouTubeTimeoutMs) * time.Millisecond,
		maxRetries: retries,
		sleep:      time.Sleep,
	}, nil
}

// ListPlaylist returns every watchable video of a playlist in playlist
// order, numbered from 1.
func (c *Client) ListPlaylist(ctx context.Context, playlistID string) ([]internal.Video, error) {
	out := []internal.Video{}
	seen := map[string]struct{}{}
	pageToken := ""

	for {
		resp, err := c.listPage(ctx, playlistID, pageToken)
		if err != nil {
			return nil, err
		}

		for _, item := range resp.Items {
			video, ok := toVideo(playlistID, item)
			if !ok {
				continue
			}
			video.Position = len(out) + 1
			out = append(out, video)
		}

		if resp.NextPageToken == "" {
			break
		}
		if _, ok := seen[resp.NextPageToken]; ok {
			break
		}
		seen[resp.NextPageToken] = struct{}{}
		pageToken = resp.NextPageToken
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("playlist %s: no watchable videos: %w", playlistID, internal.ErrNotFound)
	}
	return out, nil
}

func (c *Client) listPage(ctx context.Context, playlistID, pageToken string) (*youtube.PlaylistItemListResponse, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		call := c.service.PlaylistItems.List([]string{"snippet", "contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(pageSize)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := c.do(ctx, call)
		if err == nil {
			return resp, nil
		}

		lastErr = err
		if !isRetryable(err) || attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
		c.sleep(backoff)
	}
	return nil, fmt.Errorf("list playlist %s: %w", playlistID, lastErr)
}

func (c *Client) do(ctx context.Context, call *youtube.PlaylistItemsListCall) (*youtube.PlaylistItemListResponse, error) {
	if c.timeout <= 0 {
		return call.Context(ctx).Do()
	}
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return call.Context(reqCtx).Do()
}

func isRetryable(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func toVideo(playlistID string, item *youtube.PlaylistItem) (internal.Video, bool) {
	if item == nil || item.Snippet == nil {
		return internal.Video{}, false
	}
	title := strings.TrimSpace(item.Snippet.Title)
	if _, gone := unavailableTitles[title]; gone {
		return internal.Video{}, false
	}

	videoID := ""
	if item.ContentDetails != nil {
		videoID = item.ContentDetails.VideoId
	}
	if videoID == "" && item.Snippet.ResourceId != nil {
		videoID = item.Snippet.ResourceId.VideoId
	}
	if videoID == "" {
		return internal.Video{}, false
	}

	return internal.Video{
		PlaylistID: playlistID,
		VideoID:    videoID,
		Title:      title,
		URL:        VideoURL(videoID),
	}, true
}

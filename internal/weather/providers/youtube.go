package providers

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// YouTubeClient implements weather.VideoProvider using the YouTube Data API.
// It is only ever used for best-effort enrichment, so callers treat every
// error as "no data".
type YouTubeClient struct {
	svc *youtube.Service
}

// NewYouTubeClient builds a client with an API key credential.
func NewYouTubeClient(ctx context.Context, apiKey string) (*YouTubeClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("youtube api key is not configured")
	}

	svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	return &YouTubeClient{svc: svc}, nil
}

// SearchVideos returns up to maxResults video ids matching the query.
func (c *YouTubeClient) SearchVideos(ctx context.Context, query string, maxResults int64) ([]string, error) {
	call := c.svc.Search.List([]string{"id"}).
		Q(query).
		Type("video").
		MaxResults(maxResults).
		Context(ctx)

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			ids = append(ids, item.Id.VideoId)
		}
	}
	return ids, nil
}

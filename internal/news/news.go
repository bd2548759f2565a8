// Package news fetches trending stories for a topic from NewsAPI.
package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/snappy-loop/blogs/internal/cache"
	"github.com/snappy-loop/blogs/internal/prompts"
)

const (
	pageSize   = 14
	maxStories = 8
)

// Client queries the NewsAPI /v2/everything endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      *cache.Loader
}

// NewClient returns a NewsAPI client. loader may be nil to disable caching.
func NewClient(baseURL, apiKey string, loader *cache.Loader) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cache:      loader,
	}
}

type article struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	URLToImage *string `json:"urlToImage"`
}

type everythingResponse struct {
	Status   string    `json:"status"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Articles []article `json:"articles"`
}

// Trending returns up to 8 relevant English stories for topic that carry an image.
func (c *Client) Trending(ctx context.Context, topic string) ([]prompts.Story, error) {
	if c.cache == nil {
		return c.fetch(ctx, topic)
	}
	var stories []prompts.Story
	err := c.cache.GetOrLoad(ctx, strings.ToLower(topic), &stories, func(ctx context.Context) (any, error) {
		return c.fetch(ctx, topic)
	})
	return stories, err
}

func (c *Client) fetch(ctx context.Context, topic string) ([]prompts.Story, error) {
	if c.apiKey == "" {
		return nil, errors.New("news api key not configured")
	}
	q := url.Values{}
	q.Set("q", fmt.Sprintf("%q", topic))
	q.Set("sortBy", "relevancy")
	q.Set("language", "en")
	q.Set("pageSize", fmt.Sprint(pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/everything?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build news request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read news response: %w", err)
	}
	var parsed everythingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode news response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || parsed.Status == "error" {
		return nil, fmt.Errorf("news api error (status %d): %s %s", resp.StatusCode, parsed.Code, parsed.Message)
	}

	stories := filterStories(parsed.Articles)
	log.Info().Str("topic", topic).Int("articles", len(parsed.Articles)).Int("stories", len(stories)).Msg("Trending stories fetched")
	return stories, nil
}

func filterStories(articles []article) []prompts.Story {
	stories := make([]prompts.Story, 0, maxStories)
	for _, a := range articles {
		if a.Title == "[Removed]" || a.URLToImage == nil {
			continue
		}
		stories = append(stories, prompts.Story{Title: a.Title, URL: a.URL, Image: *a.URLToImage})
		if len(stories) == maxStories {
			break
		}
	}
	return stories
}

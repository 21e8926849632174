// Package catalog is a thin client for the Discogs database API.  It is the
// only component that talks to Discogs and it never touches the database.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/bookletify-api/internal/model"
)

const userAgent = "Bookletify/1.0 +https://github.com/iliyamo/bookletify-api"

// Sentinel errors.
var (
	// ErrMissingToken is returned by NewClient when no access token is set.
	ErrMissingToken = errors.New("missing Discogs access token")

	// ErrNotFound is returned when Discogs has no such release group.
	ErrNotFound = errors.New("album not found")

	// ErrRateLimited is returned when Discogs keeps answering 429 after retries.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrUpstream covers unreachable hosts, unexpected statuses and
	// response bodies of the wrong shape.
	ErrUpstream = errors.New("catalog upstream error")
)

// Config holds Discogs client settings.
type Config struct {
	Token   string
	BaseURL string
	Timeout time.Duration
}

// Client is a Discogs API client.  It is safe for concurrent use.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	// delays between attempts when rate limited
	retryDelays []time.Duration
}

// NewClient creates a client from cfg.  A missing token is a configuration
// error and is reported here rather than on every request.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, ErrMissingToken
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.discogs.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		token:       cfg.Token,
		baseURL:     base,
		httpClient:  &http.Client{Timeout: timeout},
		retryDelays: []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
	}, nil
}

// Search looks up releases matching artist and keeps the first result of
// every release group (master).  Results without a master are dropped
// since they cannot be opened with Album.  Returns an empty slice, not
// nil, when nothing matches.
func (c *Client) Search(ctx context.Context, artist string) ([]model.AlbumSummary, error) {
	params := url.Values{
		"q":    {artist},
		"type": {"release"},
	}
	body, err := c.get(ctx, "/database/search", params)
	if err != nil {
		return nil, fmt.Errorf("searching releases: %w", err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parsing search response: %v", ErrUpstream, err)
	}
	if resp.Results == nil {
		return nil, fmt.Errorf("%w: search response has no results field", ErrUpstream)
	}

	seen := make(map[int]bool)
	out := []model.AlbumSummary{}
	for _, r := range *resp.Results {
		if r.MasterID == 0 || seen[r.MasterID] {
			continue
		}
		seen[r.MasterID] = true
		out = append(out, model.AlbumSummary{
			MasterID:   r.MasterID,
			Title:      r.Title,
			Year:       r.Year,
			Country:    r.Country,
			Format:     r.Format,
			CoverImage: r.CoverImage,
			Genre:      r.Genre,
		})
	}
	return out, nil
}

// Album fetches one release group with its track list.  Heading rows of
// the Discogs track list are skipped.
func (c *Client) Album(ctx context.Context, masterID int) (model.AlbumDetail, error) {
	if masterID <= 0 {
		return model.AlbumDetail{}, ErrNotFound
	}
	body, err := c.get(ctx, "/masters/"+strconv.Itoa(masterID), nil)
	if err != nil {
		return model.AlbumDetail{}, fmt.Errorf("fetching master %d: %w", masterID, err)
	}

	var m masterResponse
	if err := json.Unmarshal(body, &m); err != nil {
		return model.AlbumDetail{}, fmt.Errorf("%w: parsing master response: %v", ErrUpstream, err)
	}
	if m.ID == 0 {
		return model.AlbumDetail{}, fmt.Errorf("%w: master response has no id", ErrUpstream)
	}

	detail := model.AlbumDetail{
		MasterID:  m.ID,
		Title:     m.Title,
		Year:      m.Year,
		Artists:   []string{},
		Genres:    m.Genres,
		Styles:    m.Styles,
		Tracklist: []model.Track{},
	}
	for _, a := range m.Artists {
		detail.Artists = append(detail.Artists, a.Name)
	}
	for _, img := range m.Images {
		if detail.CoverImage == "" || img.Type == "primary" {
			detail.CoverImage = img.URI
		}
		if img.Type == "primary" {
			break
		}
	}
	for _, t := range m.Tracklist {
		if t.Type != "" && t.Type != "track" {
			continue
		}
		detail.Tracklist = append(detail.Tracklist, model.Track{
			Position: t.Position,
			Title:    t.Title,
			Duration: t.Duration,
		})
	}
	return detail, nil
}

// get performs a GET with retry on rate limit.  Retries wait for each of
// retryDelays in turn.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= len(c.retryDelays); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelays[attempt-1]):
			}
		}

		body, err := c.doSingleRequest(ctx, reqURL)
		if err == nil {
			return body, nil
		}
		if errors.Is(err, ErrRateLimited) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

func (c *Client) doSingleRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Authorization", "Discogs token="+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: executing request: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", ErrUpstream, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		var apiErr apiError
		_ = json.Unmarshal(body, &apiErr)
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, apiErr.Message)
	}
	return body, nil
}

package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"wrapped/internal/logging"
	"wrapped/internal/services"
)

// Client fetches statistics from the analytics backend.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewClient builds a client for the backend rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logging.NewComponentLogger(logger, "stats-client"),
	}
}

// Fetch asks the backend to import the user's plays, then retrieves the
// summary and rankings concurrently.
func (c *Client) Fetch(ctx context.Context, user string, excludeBGA bool) (*Statistics, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return nil, services.Wrap(services.ErrValidation, "stats", "fetch", "username is required", nil)
	}
	query := url.Values{}
	if excludeBGA {
		query.Set("excludeBGA", "true")
	}
	escaped := url.PathEscape(user)

	start := time.Now()
	if err := c.getJSON(ctx, "plays/"+escaped, query, nil); err != nil {
		return nil, err
	}

	var out Statistics
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return c.getJSON(groupCtx, "analytics/"+escaped+"/stats", query, &out.Stats)
	})
	group.Go(func() error {
		return c.getJSON(groupCtx, "analytics/"+escaped+"/most-played", query, &out.MostPlayed)
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}

	c.logger.Info("statistics fetched",
		logging.String(logging.FieldEventType, "stats_fetched"),
		logging.String("user", user),
		logging.Int("total_plays", out.Stats.TotalPlays),
		logging.Duration("elapsed", time.Since(start)),
	)
	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, target any) error {
	endpoint := c.baseURL + "/" + path
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "stats", "build request", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "stats", "request", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		marker := services.ErrTransient
		if resp.StatusCode == http.StatusNotFound {
			marker = services.ErrNotFound
		}
		return services.Wrap(marker, "stats", "request", fmt.Sprintf("%s returned %s: %s", path, resp.Status, strings.TrimSpace(string(body))), nil)
	}
	if target == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return services.Wrap(services.ErrValidation, "stats", "decode", path, err)
	}
	return nil
}

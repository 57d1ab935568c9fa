package sitemodule

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mantonx/mediacatalog/internal/config"
	"github.com/mantonx/mediacatalog/internal/logger"
	"github.com/mantonx/mediacatalog/internal/metrics"
	"github.com/mantonx/mediacatalog/internal/types"
	"github.com/sony/gobreaker/v2"
)

const (
	breakerName  = "channel-feed"
	maxFeedBytes = 4 << 20
)

// channelFeed is the subset of a YouTube channel Atom feed we read
type channelFeed struct {
	Title   string      `xml:"title"`
	Entries []feedEntry `xml:"entry"`
}

type feedEntry struct {
	VideoID   string `xml:"videoId"`
	ChannelID string `xml:"channelId"`
	Title     string `xml:"title"`
	Published string `xml:"published"`
	Links     []struct {
		Rel  string `xml:"rel,attr"`
		Href string `xml:"href,attr"`
	} `xml:"link"`
	Thumbnail struct {
		URL string `xml:"url,attr"`
	} `xml:"group>thumbnail"`
}

func (e feedEntry) url() string {
	for _, l := range e.Links {
		if l.Rel == "alternate" && l.Href != "" {
			return l.Href
		}
	}
	if e.VideoID == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + e.VideoID
}

func (e feedEntry) publishedAt() *time.Time {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Published))
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

// FeedClient fetches channel feeds behind a circuit breaker
type FeedClient struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[*channelFeed]
}

// NewFeedClient builds a client from the import settings
func NewFeedClient(cfg config.ImportConfig) *FeedClient {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 3
	}
	metrics.BreakerState.WithLabelValues(breakerName).Set(0)

	breaker := gobreaker.NewCircuitBreaker[*channelFeed](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
		},
	})

	return &FeedClient{
		client:  &http.Client{},
		baseURL: cfg.FeedURL,
		timeout: cfg.Timeout,
		breaker: breaker,
	}
}

// Fetch downloads and parses the feed of channelID
func (f *FeedClient) Fetch(ctx context.Context, channelID string) (*channelFeed, error) {
	feed, err := f.breaker.Execute(func() (*channelFeed, error) {
		return f.fetch(ctx, channelID)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, types.NewImportError("channel feed is temporarily unavailable", err)
		}
		return nil, types.NewImportError("failed to fetch channel feed", err)
	}
	return feed, nil
}

func (f *FeedClient) fetch(ctx context.Context, channelID string) (*channelFeed, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	u, err := url.Parse(f.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed url: %w", err)
	}
	q := u.Query()
	q.Set("channel_id", channelID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/atom+xml, application/xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed responded with status %d", resp.StatusCode)
	}

	var feed channelFeed
	if err := xml.NewDecoder(io.LimitReader(resp.Body, maxFeedBytes)).Decode(&feed); err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return &feed, nil
}

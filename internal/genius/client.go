// Package genius talks to the Genius feed API: a paginated card feed queried
// with a search prompt. Without credentials the client serves deterministic
// mock pages so the feed UI stays usable offline.
package genius

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// PageSize is the number of cards requested per feed page.
const PageSize = 10

// Item is one card returned by the feed. Metadata holds the raw card so
// consumers can reach fields beyond the content.
type Item struct {
	ID          string
	Description string
	Metadata    json.RawMessage
}

// Config carries the connection settings for the feed API.
type Config struct {
	BaseURL        string
	APIKey         string
	OrganizationID string
	Timeout        time.Duration
}

// Client queries the feed API. A client with no API key or organization id
// runs in mock mode.
type Client struct {
	cfg       Config
	sessionID string
	httpc     *http.Client
	logger    *log.Logger
}

// NewClient constructs a client with a fresh session id.
func NewClient(cfg Config, logger *log.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		cfg:       cfg,
		sessionID: uuid.NewString(),
		httpc:     &http.Client{Timeout: cfg.Timeout},
		logger:    logger,
	}
}

// MockMode reports whether the client serves generated pages instead of
// calling the API.
func (c *Client) MockMode() bool {
	return c.cfg.APIKey == "" || c.cfg.OrganizationID == ""
}

type feedRequest struct {
	SearchPrompt string `json:"search_prompt"`
	Page         int    `json:"page"`
	BatchCount   int    `json:"batch_count"`
}

type feedResponse struct {
	Cards []json.RawMessage `json:"cards"`
}

// QueryPage fetches one page of cards for the query. Pages are 1-based.
func (c *Client) QueryPage(ctx context.Context, query string, page int) ([]Item, error) {
	if page < 1 {
		page = 1
	}
	if c.MockMode() {
		return mockPage(query, page), nil
	}

	body, err := json.Marshal(feedRequest{
		SearchPrompt: query,
		Page:         page,
		BatchCount:   PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("encode feed request: %w", err)
	}

	url := fmt.Sprintf("%s/hackathon/%s/feed/%s", c.cfg.BaseURL, c.cfg.OrganizationID, c.sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("feed request failed", "status", resp.StatusCode, "body", string(raw))
		return nil, fmt.Errorf("feed request: unexpected status %d", resp.StatusCode)
	}

	var parsed feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode feed response: %w", err)
	}
	items := decodeCards(parsed.Cards)
	c.logger.Debug("feed page fetched", "query", query, "page", page, "cards", len(items))
	return items, nil
}

// decodeCards maps raw feed cards onto Items. The card's content field is the
// description; cards without usable content are skipped, and a card with no
// id gets a generated one so dedup across pages still works.
func decodeCards(cards []json.RawMessage) []Item {
	items := make([]Item, 0, len(cards))
	for _, raw := range cards {
		var card struct {
			ID      string `json:"id"`
			Content string `json:"content"`
		}
		if err := json.Unmarshal(raw, &card); err != nil {
			continue
		}
		if strings.TrimSpace(card.Content) == "" {
			continue
		}
		if card.ID == "" {
			card.ID = uuid.NewString()
		}
		items = append(items, Item{ID: card.ID, Description: card.Content, Metadata: raw})
	}
	return items
}

// mockPage generates a deterministic page so pagination and dedup behavior
// can be exercised without credentials.
func mockPage(query string, page int) []Item {
	items := make([]Item, 0, PageSize)
	start := (page-1)*PageSize + 1
	for i := 0; i < PageSize; i++ {
		n := start + i
		meta, _ := json.Marshal(map[string]any{
			"relevance": 0.9 - 0.05*float64(n%10),
			"source":    "mock-data",
			"query":     query,
			"page":      page,
		})
		items = append(items, Item{
			ID:          fmt.Sprintf("mock-%d", n),
			Description: fmt.Sprintf("Mock result %d for %q", n, query),
			Metadata:    meta,
		})
	}
	return items
}

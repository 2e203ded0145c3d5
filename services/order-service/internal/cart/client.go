package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrCartFetch marks a failed snapshot fetch. Non-fatal for the caller: the
// choreography engine abandons the current reconciliation and waits for the
// next cart event.
var ErrCartFetch = errors.New("cart snapshot fetch failed")

type Item struct {
	ProductID int `json:"produto_id"`
	Quantity  int `json:"quantidade"`
}

// Client reads the authoritative current cart contents for a user from the
// cart service.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Snapshot(ctx context.Context, userID string) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/carrinho/"+userID, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCartFetch, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCartFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrCartFetch, resp.StatusCode)
	}

	var items []Item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCartFetch, err)
	}
	return items, nil
}

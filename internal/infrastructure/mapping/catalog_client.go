package mapping

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/procurehub/backend/internal/domain/reconciliation/acl"
)

// CatalogClient calls the item catalog service over HTTP
type CatalogClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewCatalogClient creates a new CatalogClient
func NewCatalogClient(cfg ClientConfig) *CatalogClient {
	return &CatalogClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Lookup fetches the taxability record for one item number. An unknown item
// is (nil, nil), not an error; callers default to taxable on a miss.
func (c *CatalogClient) Lookup(ctx context.Context, itemNumber string) (*acl.CatalogItem, error) {
	endpoint := c.baseURL + "/v1/items/" + url.PathEscape(itemNumber)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var item acl.CatalogItem
		if err := json.Unmarshal(data, &item); err != nil {
			return nil, fmt.Errorf("failed to decode catalog response: %w", err)
		}
		return &item, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("catalog returned status %d: %s", resp.StatusCode, string(data))
	}
}

var _ acl.ItemCatalog = (*CatalogClient)(nil)

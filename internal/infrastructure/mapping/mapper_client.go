// Package mapping implements the finance-code mapper and item catalog ports
// over their HTTP services.
package mapping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/procurehub/backend/internal/domain/reconciliation/acl"
)

// maxResponseSize limits collaborator response bodies to prevent memory
// exhaustion on a misbehaving upstream.
const maxResponseSize = 1 * 1024 * 1024 // 1MB

// ClientConfig holds the connection settings for a collaborator service
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// MapperClient calls the finance-code mapping service over HTTP
type MapperClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewMapperClient creates a new MapperClient
func NewMapperClient(cfg ClientConfig) *MapperClient {
	return &MapperClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// MapLine asks the mapping service to assign a finance code to one line
func (c *MapperClient) MapLine(ctx context.Context, req acl.MapLineRequest) (*acl.MapLineResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode map request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/map-line", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build map request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("mapping service request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping service response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mapping service returned status %d: %s", resp.StatusCode, string(data))
	}

	var result acl.MapLineResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode mapping service response: %w", err)
	}
	return &result, nil
}

var _ acl.FinanceCodeMapper = (*MapperClient)(nil)

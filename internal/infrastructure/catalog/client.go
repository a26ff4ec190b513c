package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shopassist/internal/domain/entity"
	"shopassist/pkg/errors"
)

// Client talks to the commerce catalog's product lookup endpoint. Lookups are
// always batched; the resolver never issues per-message calls.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type productsResponse struct {
	Products []entity.ProductSummary `json:"products"`
}

// FetchByIDs returns summaries for the requested product ids. Unknown ids are
// simply absent from the result.
func (c *Client) FetchByIDs(ctx context.Context, ids []string) ([]entity.ProductSummary, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/products?ids=%s", c.baseURL, url.QueryEscape(strings.Join(ids, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Internal("Failed to build catalog request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.ResolutionFailed("Catalog request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.ResolutionFailed(fmt.Sprintf("Catalog returned status %d", resp.StatusCode), nil)
	}

	var body productsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.ResolutionFailed("Failed to decode catalog response", err)
	}

	return body.Products, nil
}

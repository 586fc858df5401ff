package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"ProductCurator/internal/config"
	"ProductCurator/internal/domain"
	"ProductCurator/internal/metrics"
	"ProductCurator/internal/ports"
)

const defaultSearchPath = "/v1/products/search"

// HTTPClient searches a JSON supplier catalog.
type HTTPClient struct {
	name       string
	baseURL    string
	searchPath string
	apiKey     string
	client     *http.Client
	limiter    *rate.Limiter
}

var _ ports.SupplierClient = (*HTTPClient)(nil)

// NewHTTPClient wires an HTTP client; a nil client gets the configured timeout (20s by default).
func NewHTTPClient(cfg config.SupplierConfig, client *http.Client) *HTTPClient {
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	burst := 1
	if cfg.RateLimitRPS > 0 {
		limit = rate.Limit(cfg.RateLimitRPS)
		burst = int(cfg.RateLimitRPS)
		if burst < 1 {
			burst = 1
		}
	}

	path := cfg.SearchPath
	if path == "" {
		path = defaultSearchPath
	}

	return &HTTPClient{
		name:       cfg.Name,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		searchPath: path,
		apiKey:     cfg.APIKey,
		client:     client,
		limiter:    rate.NewLimiter(limit, burst),
	}
}

// Name identifies the supplier inside the registry.
func (c *HTTPClient) Name() string {
	return c.name
}

// Search fetches one page of candidates.
func (c *HTTPClient) Search(ctx context.Context, q domain.SearchQuery) (page domain.SearchPage, err error) {
	started := time.Now()
	defer func() { metrics.RecordSupplierRequest(c.name, err, time.Since(started)) }()

	if err := c.limiter.Wait(ctx); err != nil {
		return domain.SearchPage{}, fmt.Errorf("rate limit: %w", err)
	}

	pageURL, err := c.buildSearchURL(q)
	if err != nil {
		return domain.SearchPage{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return domain.SearchPage{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "ProductCurator/1.0")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.SearchPage{}, fmt.Errorf("request catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.SearchPage{}, fmt.Errorf("%s returned %s: %s", c.name, resp.Status, strings.TrimSpace(string(body)))
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.SearchPage{}, fmt.Errorf("decode catalog page: %w", err)
	}

	page = domain.SearchPage{Total: payload.Total, Items: make([]domain.Candidate, 0, len(payload.Items))}
	for _, item := range payload.Items {
		page.Items = append(page.Items, item.toCandidate(c.name))
	}
	return page, nil
}

func (c *HTTPClient) buildSearchURL(q domain.SearchQuery) (string, error) {
	parsed, err := url.Parse(c.baseURL + c.searchPath)
	if err != nil {
		return "", fmt.Errorf("invalid catalog url %s: %w", c.baseURL, err)
	}

	query := parsed.Query()
	if q.Category != "" {
		query.Set("category", q.Category)
	}
	if q.MinPrice > 0 {
		query.Set("minPrice", strconv.FormatFloat(q.MinPrice, 'f', 2, 64))
	}
	if q.MaxPrice > 0 {
		query.Set("maxPrice", strconv.FormatFloat(q.MaxPrice, 'f', 2, 64))
	}
	if q.Country != "" {
		query.Set("country", q.Country)
	}
	query.Set("page", strconv.Itoa(q.Page))
	query.Set("limit", strconv.Itoa(q.PageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

type searchResponse struct {
	Items []catalogItem `json:"items"`
	Total int           `json:"total"`
}

type catalogItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Price       float64  `json:"price"`
	Currency    string   `json:"currency"`
	Images      []string `json:"images"`
	Supplier    struct {
		Name           string  `json:"name"`
		Country        string  `json:"country"`
		ProcessingDays int     `json:"processingDays"`
		Rating         float64 `json:"rating"`
	} `json:"supplier"`
	Rating       float64 `json:"rating"`
	ReviewCount  int     `json:"reviewCount"`
	InStock      *bool   `json:"inStock"`
	Stock        int     `json:"stock"`
	FreeShipping bool    `json:"freeShipping"`
}

func (i catalogItem) toCandidate(source string) domain.Candidate {
	currency := i.Currency
	if currency == "" {
		currency = "USD"
	}
	inStock := i.Stock > 0
	if i.InStock != nil {
		inStock = *i.InStock
	}
	return domain.Candidate{
		ID:          i.ID,
		Source:      source,
		Title:       i.Title,
		Description: i.Description,
		Category:    i.Category,
		Price:       i.Price,
		Currency:    currency,
		Images:      i.Images,
		Supplier: domain.SupplierInfo{
			Name:           i.Supplier.Name,
			Country:        strings.ToUpper(i.Supplier.Country),
			ProcessingDays: i.Supplier.ProcessingDays,
			Rating:         i.Supplier.Rating,
		},
		Rating:        i.Rating,
		ReviewCount:   i.ReviewCount,
		InStock:       inStock,
		StockQuantity: i.Stock,
		FreeShipping:  i.FreeShipping,
	}
}

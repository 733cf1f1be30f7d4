package contentapi

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

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/contentexplore/internal/domain/entities"
	"github.com/zatekoja/contentexplore/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/contentexplore/pkg/errors"
)

// maxErrorBody caps how much of a failed response is kept in the error
const maxErrorBody = 512

// RequestIDHeader carries a per-request id for backend log correlation
const RequestIDHeader = "X-Request-ID"

// Client is the content REST API
type Client interface {
	ListContent(ctx context.Context, req ListRequest) (*ListResponse, error)
	ListFilters(ctx context.Context) (*FiltersResponse, error)
}

// HTTPClient talks to the content API over HTTP
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// ListRequest is one page query
type ListRequest struct {
	Page     int
	PageSize int
	Query    string
	Filters  entities.AppliedFilterPayload
}

// ListResponse is the body of GET /content
type ListResponse struct {
	Items      []entities.ContentItem `json:"items"`
	Pagination entities.Pagination    `json:"pagination"`
}

// FiltersResponse is the body of GET /content/filters
type FiltersResponse struct {
	Filters []entities.FilterGroup `json:"filters"`
}

// NewClient creates a client for baseURL. A non-positive timeout means 10s.
func NewClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewClientWithHTTP creates a client that uses hc for transport
func NewClientWithHTTP(baseURL string, hc *http.Client) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
	}
}

// ListContent fetches one page of content
func (c *HTTPClient) ListContent(ctx context.Context, req ListRequest) (*ListResponse, error) {
	parsed, err := url.Parse(fmt.Sprintf("%s/content", c.baseURL))
	if err != nil {
		return nil, err
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	query := parsed.Query()
	for key, value := range req.Filters {
		query.Set(key, value)
	}
	query.Set("page", strconv.Itoa(page))
	if req.Query != "" {
		query.Set("q", req.Query)
	}
	if req.PageSize > 0 {
		query.Set("page_size", strconv.Itoa(req.PageSize))
	}
	parsed.RawQuery = query.Encode()

	ctx, span := observability.StartSpan(ctx, "contentapi.ListContent")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.Int("content.page", page),
		attribute.String("content.query", req.Query),
		attribute.String("content.filters", req.Filters.Canonical()),
	)

	out := &ListResponse{}
	if err := c.doJSON(ctx, http.MethodGet, parsed.String(), nil, out); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	observability.SetSpanAttributes(span,
		attribute.Int("content.items", len(out.Items)),
		attribute.Bool("content.has_next", out.Pagination.HasNext),
	)
	return out, nil
}

// ListFilters fetches the available facets
func (c *HTTPClient) ListFilters(ctx context.Context) (*FiltersResponse, error) {
	ctx, span := observability.StartSpan(ctx, "contentapi.ListFilters")
	defer span.End()

	endpoint := fmt.Sprintf("%s/content/filters", c.baseURL)
	out := &FiltersResponse{}
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, out); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	observability.SetSpanAttributes(span, attribute.Int("content.filter_groups", len(out.Filters)))
	return out, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, endpoint string, body io.Reader, out interface{}) error {
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, uuid.New().String())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &apperrors.StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}

	return nil
}

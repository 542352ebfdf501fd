// Package netbox provides a GraphQL client that bulk-fetches the inventory
// from a NetBox instance.
package netbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kneutral-org/inventory-dashboard/internal/inventory"
)

// DefaultTimeout bounds a single GraphQL round trip.
const DefaultTimeout = 30 * time.Second

var (
	// ErrGraphQL is matched by every error reported in a GraphQL response.
	ErrGraphQL = errors.New("graphql error")

	// ErrNoEndpoint is returned when the client has no endpoint configured.
	ErrNoEndpoint = errors.New("netbox endpoint not configured")
)

// GraphQLError is one entry of the errors array of a GraphQL response.
type GraphQLError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

// QueryError is returned when a response carries errors and no data.
type QueryError struct {
	Operation string
	Errors    []GraphQLError
}

func (e *QueryError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ge := range e.Errors {
		msgs = append(msgs, ge.Message)
	}
	if len(msgs) == 0 {
		msgs = append(msgs, "response has no data")
	}
	return fmt.Sprintf("graphql %s: %s", e.Operation, strings.Join(msgs, "; "))
}

func (e *QueryError) Is(target error) bool {
	return target == ErrGraphQL
}

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("netbox returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("netbox returned status %d: %s", e.StatusCode, e.Body)
}

// Client talks to the NetBox GraphQL API using token authentication.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
	logger   zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the GraphQL endpoint, e.g. https://netbox.example.com/graphql/.
func New(endpoint, token string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimSpace(endpoint),
		token:    strings.TrimSpace(token),
		http:     &http.Client{Timeout: DefaultTimeout},
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "netbox").Logger()
	return c
}

// Name implements inventory.Source.
func (c *Client) Name() string { return "netbox" }

// Fetch implements inventory.Source with a single bulk query.
func (c *Client) Fetch(ctx context.Context) (*inventory.Inventory, error) {
	var data topologyData
	if err := c.query(ctx, "FetchTopology", fetchTopologyQuery, nil, &data); err != nil {
		return nil, err
	}
	return data.inventory(c.logger)
}

type graphQLRequest struct {
	OperationName string         `json:"operationName"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

const maxErrorBody = 4 << 10

func (c *Client) query(ctx context.Context, operation, query string, vars map[string]any, out any) error {
	if c.endpoint == "" {
		return ErrNoEndpoint
	}

	body, err := json.Marshal(graphQLRequest{OperationName: operation, Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("encode graphql request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	c.logger.Debug().Str("operation", operation).Msg("graphql request")
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("graphql %s: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	var gr graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return fmt.Errorf("decode graphql %s response: %w", operation, err)
	}
	if len(gr.Data) == 0 || bytes.Equal(gr.Data, []byte("null")) {
		return &QueryError{Operation: operation, Errors: gr.Errors}
	}
	if len(gr.Errors) > 0 {
		c.logger.Warn().
			Str("operation", operation).
			Int("errors", len(gr.Errors)).
			Str("first_error", gr.Errors[0].Message).
			Msg("graphql response has partial errors")
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return fmt.Errorf("decode graphql %s data: %w", operation, err)
	}

	c.logger.Debug().
		Str("operation", operation).
		Dur("duration", time.Since(start)).
		Int("bytes", len(gr.Data)).
		Msg("graphql response")
	return nil
}

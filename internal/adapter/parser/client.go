// Package parser talks to the external free-text description parser
// service, which turns prose like "T154N-R97W Sec 14: NE/4" into
// structured tracts.
package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/plss-plat-etl/internal/domain"
	"github.com/couchcryptid/plss-plat-etl/internal/observability"
)

// Client implements domain.DescriptionParser against the parser service's
// HTTP API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a description-parser client.
func NewClient(baseURL, token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// ParseDescription submits the text for parsing and maps the response
// into domain tracts. Tracts the service could not pin to a valid
// township or section are dropped with a warning.
func (c *Client) ParseDescription(ctx context.Context, text string) ([]domain.ParsedTract, error) {
	body, err := json.Marshal(parseRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("encode parse request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/parse", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ParserRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("parse request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.ParserRequests.WithLabelValues("error").Inc()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("parser API error: status %d: %s", resp.StatusCode, respBody)
	}

	var parsed parseResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.metrics.ParserRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode response: %w", err)
	}

	tracts := make([]domain.ParsedTract, 0, len(parsed.Tracts))
	for _, rt := range parsed.Tracts {
		tr, err := domain.ParseTwpRgeParts(rt.Twp, rt.Rge)
		if err != nil {
			c.logger.Warn("dropping parsed tract with bad township", "twp", rt.Twp, "rge", rt.Rge, "error", err)
			continue
		}
		if !domain.ValidSection(rt.Sec) {
			c.logger.Warn("dropping parsed tract with bad section", "twprge", tr.Key(), "section", rt.Sec)
			continue
		}
		tracts = append(tracts, domain.ParsedTract{
			TwpRge:   tr,
			Sec:      rt.Sec,
			Aliquots: rt.Aliquots,
			Lots:     rt.Lots,
			Desc:     rt.Desc,
		})
	}

	if len(tracts) == 0 {
		c.metrics.ParserRequests.WithLabelValues("empty").Inc()
	} else {
		c.metrics.ParserRequests.WithLabelValues("success").Inc()
	}
	return tracts, nil
}

// Parser service API types.

type parseRequest struct {
	Text string `json:"text"`
}

type parseResponse struct {
	Tracts []responseTract `json:"tracts"`
}

type responseTract struct {
	Twp      string   `json:"twp"`
	Rge      string   `json:"rge"`
	Sec      int      `json:"sec"`
	Aliquots []string `json:"aliquots"`
	Lots     []string `json:"lots"`
	Desc     string   `json:"desc"`
}

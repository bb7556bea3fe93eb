// Package mergeservice dispatches resolved merge requests to the document rendering service.
package mergeservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"
	generr "github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const (
	DefaultTimeout = 2 * time.Minute

	// MaxResponseSize bounds the XML envelope (10MB)
	MaxResponseSize = 10 * 1024 * 1024

	// DefaultMaxRequestSize bounds the serialized merge request (10MB)
	DefaultMaxRequestSize = 10 * 1024 * 1024
)

type Config struct {
	URL            string
	Token          string
	Timeout        time.Duration
	MaxRequestSize int64
	MaxIdleConns   int
}

// Client posts merge requests to the merge service. Calls are never retried.
type Client struct {
	client *http.Client
	logger ectologger.Logger
	config Config
}

func NewClient(cfg Config, logger ectologger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRequestSize <= 0 {
		cfg.MaxRequestSize = DefaultMaxRequestSize
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 10
	}

	transport := &http.Transport{
		MaxIdleConns:    cfg.MaxIdleConns,
		IdleConnTimeout: 90 * time.Second,
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		logger: logger,
		config: cfg,
	}
}

// Merge sends the request and returns the result value of a successful response.
func (c *Client) Merge(ctx context.Context, request *models.MergeRequest) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "mergeservice.Merge")
	defer span.End()

	log := c.logger.WithContext(ctx).WithFields(map[string]any{
		"output_file_name": request.OutputFileName,
		"output_format":    request.OutputFormat,
		"is_preview":       request.IsPreview,
	})

	body, err := json.Marshal(request)
	if err != nil {
		return "", generr.Wrap(generr.KindExternal, err, "failed to serialize merge request").AddStage(generr.StageMergeService)
	}
	if int64(len(body)) > c.config.MaxRequestSize {
		return "", generr.Newf(generr.KindExternal, "merge request too large: %d bytes (max %d)", len(body), c.config.MaxRequestSize).
			AddStage(generr.StageMergeService)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return "", generr.Wrap(generr.KindExternal, err, "failed to create merge request").AddStage(generr.StageMergeService)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/xml")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecordMergeServiceRequest("error", time.Since(start).Seconds())
		log.WithError(err).Error("merge service request failed")
		return "", generr.Wrap(generr.KindExternal, err, "merge service request failed").AddStage(generr.StageMergeService)
	}
	defer resp.Body.Close()

	duration := time.Since(start)
	metrics.RecordMergeServiceRequest(strconv.Itoa(resp.StatusCode), duration.Seconds())

	payload, err := readBody(resp)
	if err != nil {
		return "", generr.Wrap(generr.KindExternal, err, "failed to read merge service response").AddStage(generr.StageMergeService)
	}

	log.Debugf("merge service POST %s -> %d (%s)", c.config.URL, resp.StatusCode, duration)

	if !isSuccessStatus(resp.StatusCode) {
		envelope, parseErr := ParseResponse(payload)
		description := string(payload)
		if parseErr == nil && envelope.Status.Description != "" {
			description = envelope.Status.Description
		}
		return "", generr.Newf(generr.KindExternal, "merge service returned HTTP %d: %s", resp.StatusCode, description).
			AddStage(generr.StageMergeService)
	}

	envelope, err := ParseResponse(payload)
	if err != nil {
		return "", generr.Wrap(generr.KindExternal, err, "invalid merge service response").AddStage(generr.StageMergeService)
	}

	result, err := envelope.ResultValue()
	if err != nil {
		log.WithError(err).Warn("merge service reported a failure")
		return "", generr.Wrap(generr.KindExternal, err, "merge service reported a failure").AddStage(generr.StageMergeService)
	}

	return result, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	if resp.ContentLength > MaxResponseSize {
		return nil, fmt.Errorf("response too large: %d bytes (max %d)", resp.ContentLength, MaxResponseSize)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response body too large: %d bytes (max %d)", len(body), MaxResponseSize)
	}
	return body, nil
}

func isSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

package mergeservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	generr "github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelope(code, description, value string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<MergeResponse>
  <Status><Code>%s</Code><Description>%s</Description></Status>
  <Result><Value>%s</Value></Result>
</MergeResponse>`, code, description, value)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewClient(Config{URL: server.URL, Token: "secret", Timeout: 5 * time.Second}, logger)
}

func testRequest() *models.MergeRequest {
	return &models.MergeRequest{
		OutputFormat:   models.OutputFormatDOCX,
		OutputFileName: "MSA-100_generate_NDA_03-05-2024_2.docx",
		ParentID:       "a-1",
		ParentType:     "agreement",
		MergeData: &models.MergeData{
			TypeName: "Agreement",
			Fields:   []models.DataSpec{{Name: "Name", Type: models.FieldTypeString}},
		},
	}
}

func TestMergeSuccess(t *testing.T) {
	var received models.MergeRequest
	var authorization, contentType string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		authorization = r.Header.Get("Authorization")
		contentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)

		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(envelope("200", "OK", "https://files.example.com/doc-1")))
	})

	result, err := client.Merge(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, "https://files.example.com/doc-1", result)
	assert.Equal(t, "Bearer secret", authorization)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "MSA-100_generate_NDA_03-05-2024_2.docx", received.OutputFileName)
	assert.Equal(t, "Agreement", received.MergeData.TypeName)
}

func TestMergeFailures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		contains string
	}{
		{name: "designated error code", status: http.StatusOK, body: envelope("500", "Template is corrupt", ""), contains: "Template is corrupt"},
		{name: "non success code", status: http.StatusOK, body: envelope("404", "Template not found", ""), contains: "Template not found"},
		{name: "empty result", status: http.StatusOK, body: envelope("200", "OK", ""), contains: "empty result"},
		{name: "invalid code", status: http.StatusOK, body: envelope("abc", "", "x"), contains: "invalid status code"},
		{name: "empty body", status: http.StatusOK, body: "", contains: "empty response body"},
		{name: "not xml", status: http.StatusOK, body: "{}", contains: "failed to parse XML"},
		{name: "http error with envelope", status: http.StatusBadGateway, body: envelope("500", "Renderer offline", ""), contains: "Renderer offline"},
		{name: "http error without envelope", status: http.StatusServiceUnavailable, body: "maintenance", contains: "HTTP 503: maintenance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Merge(context.Background(), testRequest())
			require.Error(t, err)

			genErr, ok := generr.AsGenerationError(err)
			require.True(t, ok)
			assert.Equal(t, generr.KindExternal, genErr.Kind)
			assert.Equal(t, generr.StageMergeService, genErr.Stage)
			assert.Equal(t, http.StatusBadGateway, genErr.StatusCode())
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestMergeRequestTooLarge(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))
	defer server.Close()

	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	client := NewClient(Config{URL: server.URL, MaxRequestSize: 16}, logger)

	_, err := client.Merge(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "merge request too large")
	assert.False(t, called)
}

func TestMergeUnreachable(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	client := NewClient(Config{URL: "http://127.0.0.1:1", Timeout: time.Second}, logger)

	_, err := client.Merge(context.Background(), testRequest())
	require.Error(t, err)
	assert.True(t, generr.IsKind(err, generr.KindExternal))
}

func TestResponseResultValue(t *testing.T) {
	response, err := ParseResponse([]byte(envelope(" 201 ", "Created", "  keep spacing ")))
	require.NoError(t, err)

	value, err := response.ResultValue()
	require.NoError(t, err)
	assert.Equal(t, "  keep spacing ", value)
}

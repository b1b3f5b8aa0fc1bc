package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
)

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
}

func TestExtractResourceTarget(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		prefix   string
		expected string
	}{
		{
			name:     "locators URI",
			uri:      "pagekeep://locators/a.example/page",
			prefix:   locatorsPrefix,
			expected: "a.example/page",
		},
		{
			name:     "content info URI keeps full URL",
			uri:      "pagekeep://content-info/https://a.example/page?q=1",
			prefix:   contentInfoPrefix,
			expected: "https://a.example/page?q=1",
		},
		{
			name:     "invalid prefix",
			uri:      "file://locators/a.example",
			prefix:   locatorsPrefix,
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			prefix:   locatorsPrefix,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractResourceTarget(tt.uri, tt.prefix))
		})
	}
}

func TestServer_handleLocatorsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns locators as JSON", func(t *testing.T) {
		svc := &mockPageIndexingService{locators: []domain.Locator{{
			Format:            domain.LocatorFormatPDF,
			OriginalLocation:  "https://a.example/doc.pdf",
			LocationType:      domain.LocationTypeRemote,
			Fingerprint:       "abc",
			FingerprintScheme: domain.FingerprintSchemePDFv1,
		}}}
		server := newTestServer(t, svc, nil)

		uri := "pagekeep://locators/memex.cloud/ct/abc.pdf"
		result, err := server.handleLocatorsResource(ctx, readRequest(uri))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, uri, result.Contents[0].URI)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)

		var got []LocatorOutput
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "abc", got[0].Fingerprint)
		assert.Equal(t, "https://a.example/doc.pdf", got[0].OriginalLocation)
	})

	t.Run("empty list", func(t *testing.T) {
		server := newTestServer(t, &mockPageIndexingService{}, nil)

		result, err := server.handleLocatorsResource(ctx, readRequest("pagekeep://locators/a.example"))
		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("invalid URI", func(t *testing.T) {
		server := newTestServer(t, &mockPageIndexingService{}, nil)

		_, err := server.handleLocatorsResource(ctx, readRequest("pagekeep://locators/"))
		assert.Error(t, err)
	})

	t.Run("service error", func(t *testing.T) {
		server := newTestServer(t, &mockPageIndexingService{err: errors.New("db down")}, nil)

		_, err := server.handleLocatorsResource(ctx, readRequest("pagekeep://locators/a.example"))
		assert.ErrorContains(t, err, "db down")
	})
}

func TestServer_handleContentInfoResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns content info", func(t *testing.T) {
		svc := &mockPageIndexingService{info: &domain.ContentInfo{
			PrimaryIdentifier: domain.ContentIdentifier{NormalizedURL: "a.example", FullURL: "https://a.example"},
		}}
		server := newTestServer(t, svc, nil)

		result, err := server.handleContentInfoResource(ctx, readRequest("pagekeep://content-info/https://a.example"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, `"primaryIdentifier"`)
		assert.Contains(t, result.Contents[0].Text, `"normalizedUrl": "a.example"`)
	})

	t.Run("unknown URL is not found", func(t *testing.T) {
		svc := &mockPageIndexingService{err: domain.ErrNotFound}
		server := newTestServer(t, svc, nil)

		_, err := server.handleContentInfoResource(ctx, readRequest("pagekeep://content-info/https://b.example"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
	})
}

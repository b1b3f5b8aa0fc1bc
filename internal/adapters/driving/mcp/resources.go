package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for pagekeep resources.
	uriScheme = "pagekeep://"

	locatorsPrefix    = uriScheme + "locators/"
	contentInfoPrefix = uriScheme + "content-info/"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Template for the stored locators of a page.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: locatorsPrefix + "{+normalizedUrl}",
		Name:        "page-locators",
		Description: "Stored locators of a page, by normalized URL",
		MIMEType:    "application/json",
	}, s.handleLocatorsResource)

	// Template for cached content info.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: contentInfoPrefix + "{+fullUrl}",
		Name:        "content-info",
		Description: "Cached content info (identifiers and locators) for a URL",
		MIMEType:    "application/json",
	}, s.handleContentInfoResource)
}

// handleLocatorsResource returns the stored locators of a page.
func (s *Server) handleLocatorsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// pagekeep://locators/{normalizedUrl}
	normalizedURL := extractResourceTarget(req.Params.URI, locatorsPrefix)
	if normalizedURL == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	locators, err := s.ports.PageIndexing.FindLocatorsByNormalizedURL(ctx, normalizedURL)
	if err != nil {
		return nil, fmt.Errorf("finding locators: %w", err)
	}

	infos := make([]LocatorOutput, len(locators))
	for i := range locators {
		infos[i] = locatorOutput(&locators[i])
	}
	return jsonResource(req.Params.URI, infos)
}

// handleContentInfoResource returns cached content info for a URL.
func (s *Server) handleContentInfoResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	fullURL := extractResourceTarget(req.Params.URI, contentInfoPrefix)
	if fullURL == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	info, err := s.ports.PageIndexing.GetContentInfo(ctx, fullURL)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting content info: %w", err)
	}
	return jsonResource(req.Params.URI, info)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractResourceTarget returns what follows prefix in uri, or empty if uri
// does not start with prefix.
func extractResourceTarget(uri, prefix string) string {
	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	return strings.TrimPrefix(uri, prefix)
}

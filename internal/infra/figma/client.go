// Package figma is a client for the Figma REST API built on the resilient
// fetcher. It covers the read-side endpoints an exporter needs: file
// documents, node subtrees, image fills, and node rendering.
package figma

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"figpull/internal/domain/entity"
	"figpull/internal/infra/credstore"
	"figpull/internal/infra/fetcher"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.figma.com"

// tokenHeader is the personal-access-token header the API expects.
const tokenHeader = "X-Figma-Token"

// RenderFormat selects the output format of a render request.
type RenderFormat string

const (
	// FormatPNG renders nodes as raster PNG images
	FormatPNG RenderFormat = "png"

	// FormatSVG renders nodes as vector SVG documents
	FormatSVG RenderFormat = "svg"
)

// RenderOptions controls how nodes are rendered.
type RenderOptions struct {
	// Format is png or svg
	Format RenderFormat

	// Scale is the raster scale factor, valid between 0.01 and 4.
	// Only meaningful for PNG; zero means the API default of 1.
	Scale float64

	// SVGIncludeID adds id attributes to all SVG elements
	SVGIncludeID bool

	// SVGOutlineText converts text to outlines in the SVG output
	SVGOutlineText bool

	// SVGSimplifyStroke simplifies inner and outer strokes where possible
	SVGSimplifyStroke bool
}

// Validate checks the render options for API-acceptable values.
func (o RenderOptions) Validate() error {
	switch o.Format {
	case FormatPNG, FormatSVG:
	default:
		return &entity.ValidationError{Field: "format", Message: fmt.Sprintf("unsupported render format %q", o.Format)}
	}
	if o.Scale != 0 && (o.Scale < 0.01 || o.Scale > 4) {
		return &entity.ValidationError{Field: "scale", Message: "scale must be between 0.01 and 4"}
	}
	return nil
}

// Client calls the design API through the resilient fetcher, resolving the
// access token per request and pacing calls with a rate limiter.
//
// Thread safety: Client is safe for concurrent use.
type Client struct {
	baseURL string
	fetcher *fetcher.Client
	tokens  *credstore.TokenSource
	limiter *RateLimiter
	logger  *slog.Logger
}

// NewClient creates an API client. baseURL may be empty to use the
// production endpoint.
func NewClient(baseURL string, fc *fetcher.Client, tokens *credstore.TokenSource, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: fc,
		tokens:  tokens,
		// The API allows roughly two requests per second per token.
		limiter: NewRateLimiter(2.0, 2),
		logger:  logger,
	}
}

// GetFile retrieves the full document of a file by key.
func (c *Client) GetFile(ctx context.Context, fileKey string) (*entity.File, error) {
	if fileKey == "" {
		return nil, fmt.Errorf("%w: file key is empty", entity.ErrInvalidInput)
	}

	endpoint := fmt.Sprintf("%s/v1/files/%s", c.baseURL, url.PathEscape(fileKey))
	return get[entity.File](ctx, c, endpoint)
}

// GetFileNodes retrieves the subtrees of the given node IDs within a file.
// depth limits how many levels of children are returned; zero means the
// full subtree.
func (c *Client) GetFileNodes(ctx context.Context, fileKey string, ids []string, depth int) (*entity.NodeSet, error) {
	if fileKey == "" {
		return nil, fmt.Errorf("%w: file key is empty", entity.ErrInvalidInput)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: node ID list is empty", entity.ErrInvalidInput)
	}

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))
	if depth > 0 {
		query.Set("depth", strconv.Itoa(depth))
	}

	endpoint := fmt.Sprintf("%s/v1/files/%s/nodes?%s", c.baseURL, url.PathEscape(fileKey), query.Encode())
	return get[entity.NodeSet](ctx, c, endpoint)
}

// GetImageFills retrieves the download URLs for all image fills used in a
// file, keyed by image reference.
func (c *Client) GetImageFills(ctx context.Context, fileKey string) (*entity.ImageFills, error) {
	if fileKey == "" {
		return nil, fmt.Errorf("%w: file key is empty", entity.ErrInvalidInput)
	}

	endpoint := fmt.Sprintf("%s/v1/files/%s/images", c.baseURL, url.PathEscape(fileKey))
	fills, err := get[entity.ImageFills](ctx, c, endpoint)
	if err != nil {
		return nil, err
	}
	if fills.Error {
		return nil, fmt.Errorf("%w: image fills request rejected with status %d", entity.ErrAPIError, fills.Status)
	}
	return fills, nil
}

// RenderImages asks the API to render the given nodes and returns a map of
// node ID to rendered image URL. Nodes the renderer could not process come
// back with an empty URL and are reported but not fatal.
func (c *Client) RenderImages(ctx context.Context, fileKey string, ids []string, opts RenderOptions) (*entity.RenderResult, error) {
	if fileKey == "" {
		return nil, fmt.Errorf("%w: file key is empty", entity.ErrInvalidInput)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: node ID list is empty", entity.ErrInvalidInput)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))
	query.Set("format", string(opts.Format))
	switch opts.Format {
	case FormatPNG:
		if opts.Scale != 0 {
			query.Set("scale", strconv.FormatFloat(opts.Scale, 'f', -1, 64))
		}
	case FormatSVG:
		if opts.SVGIncludeID {
			query.Set("svg_include_id", "true")
		}
		if opts.SVGOutlineText {
			query.Set("svg_outline_text", "true")
		}
		if opts.SVGSimplifyStroke {
			query.Set("svg_simplify_stroke", "true")
		}
	}

	endpoint := fmt.Sprintf("%s/v1/images/%s?%s", c.baseURL, url.PathEscape(fileKey), query.Encode())
	result, err := get[entity.RenderResult](ctx, c, endpoint)
	if err != nil {
		return nil, err
	}
	if result.Err != "" {
		return nil, fmt.Errorf("%w: render failed: %s", entity.ErrAPIError, result.Err)
	}

	for id, imageURL := range result.Images {
		if imageURL == "" {
			c.logger.Warn("node could not be rendered",
				slog.String("file_key", fileKey),
				slog.String("node_id", id))
		}
	}

	return result, nil
}

// get paces the request, attaches the resolved token header, and fetches
// the endpoint through the resilient fetcher. A plain function because Go
// methods cannot take type parameters.
func get[T any](ctx context.Context, c *Client, endpoint string) (*T, error) {
	if err := c.limiter.Allow(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	headers := map[string]string{tokenHeader: c.tokens.Token(ctx)}
	out, err := fetcher.GetJSON[T](ctx, c.fetcher, endpoint, fetcher.Options{Headers: headers})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

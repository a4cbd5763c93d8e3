package drive

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Client wraps the Google Drive API client
type Client struct {
	service *drive.Service
}

// NewClient creates a Drive client on top of an already authorized HTTP client.
// Token refresh is the HTTP client's job.
func NewClient(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)

	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}

	return &Client{service: srv}, nil
}

// Service returns the underlying Google Drive service for direct API access
func (c *Client) Service() *drive.Service {
	return c.service
}

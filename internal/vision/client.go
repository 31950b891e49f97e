package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client talks to a vision-understanding HTTP endpoint.
//
// The wire contract is a single POST of the base64 image plus the expected
// schema, answered with the extracted field list. HTTP 5xx responses and
// transport errors are reported as transient; 4xx responses are permanent.
type Client struct {
	http     *resty.Client
	endpoint string
}

// NewClient creates a client for the given endpoint URL.
func NewClient(endpoint string, timeout time.Duration) *Client {
	c := resty.New()
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &Client{http: c, endpoint: endpoint}
}

type extractRequest struct {
	ImageBase64 string           `json:"image_base64"`
	MimeType    string           `json:"mime_type"`
	Fields      ExtractionSchema `json:"fields,omitempty"`
}

type extractResponse struct {
	Fields []FieldValue `json:"fields"`
}

// Extract implements Extractor over HTTP.
func (c *Client) Extract(ctx context.Context, req *Request) (*Result, error) {
	body := extractRequest{
		ImageBase64: base64.StdEncoding.EncodeToString(req.ImagePNG),
		MimeType:    "image/png",
		Fields:      req.Schema,
	}

	var out extractResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post(c.endpoint)
	if err != nil {
		return nil, &TransientError{Err: fmt.Errorf("vision request failed: %w", err)}
	}

	if resp.IsError() {
		err := fmt.Errorf("vision service returned %s", resp.Status())
		if resp.StatusCode() >= http.StatusInternalServerError ||
			resp.StatusCode() == http.StatusTooManyRequests {
			return nil, &TransientError{Err: err}
		}
		return nil, err
	}

	fields := out.Fields
	for i := range fields {
		if fields[i].Provenance == "" {
			fields[i].Provenance = "vision"
		}
	}

	return &Result{Fields: fields}, nil
}

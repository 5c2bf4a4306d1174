package gateway

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-storefront-client/internal/errors"
)

// DoJSON sends body as JSON and decodes the answer into result. Non-2xx
// answers become *errors.APIError. result may be nil.
func (c *Client) DoJSON(ctx context.Context, method, path string, body, result any) error {
	resp, err := c.Send(ctx, &Request{Method: method, Path: path, Body: body})
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	return errors.Wrapf(resp.Decode(result), "[Gateway DoJSON] %s %s", method, path)
}

func (c *Client) GetJSON(ctx context.Context, path string, result any) error {
	return c.DoJSON(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) PostJSON(ctx context.Context, path string, body, result any) error {
	return c.DoJSON(ctx, http.MethodPost, path, body, result)
}

func (c *Client) PutJSON(ctx context.Context, path string, body, result any) error {
	return c.DoJSON(ctx, http.MethodPut, path, body, result)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.DoJSON(ctx, http.MethodDelete, path, nil, nil)
}

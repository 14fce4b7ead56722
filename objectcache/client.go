// Package objectcache is a thin client over the content-addressed object
// cache HTTP service (§4.2, §6). It supports versioned put/get/update of
// raw bytes and, through Codec, typed objects.
package objectcache

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/flamesh/flame"
)

// putResponse mirrors the JSON the cache service returns from both the
// create (POST) and update (PUT) operations (§6).
type putResponse struct {
	Endpoint string `json:"endpoint"`
	Version  int64  `json:"version"`
	Size     int64  `json:"size"`
}

// getResponse mirrors the JSON the cache service returns from GET (§6).
type getResponse struct {
	Version int64  `json:"version"`
	Data    []byte `json:"data"`
}

// Client is the object cache HTTP client.
type Client struct {
	http *resty.Client
	base string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient lets callers supply a pre-configured resty client (custom
// transport, retries, auth).
func WithHTTPClient(c *resty.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// New constructs a Client against the cache service reachable at baseAddr
// (e.g. "http://cache.internal:9919").
func New(baseAddr string, opts ...Option) *Client {
	cl := &Client{
		http: resty.New(),
		base: baseAddr,
	}
	for _, opt := range opts {
		opt(cl)
	}
	return cl
}

// PutBytes creates a new cached object bound to sessionID holding raw, returning
// the fresh reference the frontend/session should remember (§6 POST
// /objects/{session_id}).
func (c *Client) PutBytes(ctx context.Context, sessionID flame.SessionID, raw []byte) (*flame.ObjectRef, error) {
	var out putResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(raw).
		SetResult(&out).
		Post(fmt.Sprintf("%s/objects/%s", c.base, sessionID))
	if err != nil {
		return nil, flame.Wrap(flame.CodeInternal, err, "object cache put")
	}
	if resp.IsError() {
		return nil, flame.Errorf(flame.CodeInternal, "object cache put: %s", resp.Status())
	}
	return &flame.ObjectRef{URL: out.Endpoint, Version: out.Version}, nil
}

// GetBytes fetches the current value behind ref and updates ref.Version in
// place to match what the server returned (§4.2 get_object).
func (c *Client) GetBytes(ctx context.Context, ref *flame.ObjectRef) ([]byte, error) {
	if ref.IsInline() {
		return ref.Inline, nil
	}
	if ref.IsNull() {
		return nil, nil
	}
	var out getResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(ref.URL)
	if err != nil {
		return nil, flame.Wrap(flame.CodeInternal, err, "object cache get %s", ref.URL)
	}
	if resp.IsError() {
		return nil, flame.Errorf(flame.CodeInternal, "object cache get %s: %s", ref.URL, resp.Status())
	}
	ref.Version = out.Version
	return out.Data, nil
}

// updateRequest is the PUT {endpoint} body (§4.2/§6).
type updateRequest struct {
	Version int64  `json:"version"`
	Data    []byte `json:"data"`
}

// UpdateBytes re-puts raw behind ref's URL under optimistic concurrency: the
// server must currently hold ref.Version, else it fails with a conflict that
// this client surfaces as CodeInvalidState (Open Question 1, pinned in
// SPEC_FULL.md to strict enforcement). On success it returns a new
// *ObjectRef with the bumped version; callers must discard the old one.
func (c *Client) UpdateBytes(ctx context.Context, ref *flame.ObjectRef, raw []byte) (*flame.ObjectRef, error) {
	if ref == nil || ref.URL == "" {
		return nil, flame.Errorf(flame.CodeInvalidArgument, "update requires a remote object reference")
	}
	var out putResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(updateRequest{Version: ref.Version, Data: raw}).
		SetResult(&out).
		Put(ref.URL)
	if err != nil {
		return nil, flame.Wrap(flame.CodeInternal, err, "object cache update %s", ref.URL)
	}
	if resp.StatusCode() == 409 {
		return nil, flame.Errorf(flame.CodeInvalidState, "object cache update %s: version conflict", ref.URL)
	}
	if resp.IsError() {
		return nil, flame.Errorf(flame.CodeInternal, "object cache update %s: %s", ref.URL, resp.Status())
	}
	return &flame.ObjectRef{URL: out.Endpoint, Version: out.Version}, nil
}

// PutObject serializes obj with codec and stores it via PutBytes.
func (c *Client) PutObject(ctx context.Context, sessionID flame.SessionID, obj any, codec Codec) (*flame.ObjectRef, error) {
	data, err := codec.Marshal(obj)
	if err != nil {
		return nil, flame.Wrap(flame.CodeInternal, err, "serialize object")
	}
	return c.PutBytes(ctx, sessionID, data)
}

// GetObject fetches and decodes the object behind ref into dst, updating
// ref.Version in place.
func (c *Client) GetObject(ctx context.Context, ref *flame.ObjectRef, dst any, codec Codec) error {
	data, err := c.GetBytes(ctx, ref)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := codec.Unmarshal(data, dst); err != nil {
		return flame.Wrap(flame.CodeInternal, err, "deserialize object")
	}
	return nil
}

// UpdateObject serializes newValue with codec and updates the object behind
// ref, returning the bumped reference.
func (c *Client) UpdateObject(ctx context.Context, ref *flame.ObjectRef, newValue any, codec Codec) (*flame.ObjectRef, error) {
	data, err := codec.Marshal(newValue)
	if err != nil {
		return nil, flame.Wrap(flame.CodeInternal, err, "serialize object")
	}
	return c.UpdateBytes(ctx, ref, data)
}

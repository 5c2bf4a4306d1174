package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-storefront-client/internal/errors"
	"github.com/jrsteele09/go-storefront-client/users"
	"golang.org/x/oauth2"
)

const headerRequestID = "X-Request-ID"

// refreshRequest is the body sent to the refresh endpoint. The endpoint
// authenticates by cookie; the expired access token is informational.
type refreshRequest struct {
	AccessToken string `json:"accessToken,omitempty"`
}

// RefreshResponse is the refresh (and login) endpoint answer. User may be
// omitted by the refresh endpoint.
type RefreshResponse struct {
	Token string          `json:"token"`
	User  *users.Identity `json:"user,omitempty"`
}

// Send performs req. Any status other than 401 is returned as a response
// with a nil error. A 401 triggers one credential renewal and one replay;
// a 401 that cannot be recovered is returned as an *errors.APIError.
// Transport failures are returned unchanged.
func (c *Client) Send(ctx context.Context, req *Request) (*Response, error) {
	if req == nil || req.Method == "" {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[Gateway Send] method is required")
	}
	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "[Gateway Send] %s %s", req.Method, req.Path)
	}

	return c.send(ctx, attempt{
		request:     req,
		body:        body,
		contentType: contentType,
		credential:  c.Credential(),
		requestID:   uuid.New().String(),
	})
}

func (c *Client) send(ctx context.Context, a attempt) (*Response, error) {
	f := c.factory

	resp, err := f.roundTrip(ctx, a)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	if a.retried || f.isAuthEndpoint(a.request.Path) {
		f.opts.logger.Debug().
			Str("request_id", a.requestID).
			Str("path", a.request.Path).
			Bool("retried", a.retried).
			Msg("unauthorized response is not renewable")
		return nil, resp.Err()
	}

	return c.renewAndReplay(ctx, a)
}

func (c *Client) renewAndReplay(ctx context.Context, a attempt) (*Response, error) {
	f := c.factory

	if f.session.Identity() == nil {
		f.opts.logger.Warn().
			Str("request_id", a.requestID).
			Str("path", a.request.Path).
			Msg("unauthorized without a signed-in user, clearing session")
		f.session.Logout()
		return nil, fmt.Errorf("%w: %w", errors.ErrNotAuthenticated, errors.ErrSessionInvalid)
	}

	credential, err := f.refresher.renew(ctx, a.credential, f.session.Credential, f.refresh)
	if err != nil {
		return nil, err
	}
	c.setCredential(credential)

	f.opts.logger.Debug().
		Str("request_id", a.requestID).
		Str("path", a.request.Path).
		Msg("replaying request with renewed credential")
	return c.send(ctx, a.retry(credential))
}

// refresh performs the renewal exchange. It runs on behalf of every request
// waiting on it, so it is detached from the cancellation of the request that
// started it and bounded by the refresh timeout instead.
func (f *Factory) refresh(ctx context.Context, stale string) (string, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.opts.refreshTimeout)
	defer cancel()

	previous := f.session.Identity()
	f.opts.logger.Info().Str("path", f.opts.refreshPath).Msg("renewing credential")

	body, contentType, err := encodeBody(refreshRequest{AccessToken: stale})
	if err != nil {
		return f.refreshFailed(err)
	}
	resp, err := f.roundTrip(ctx, attempt{
		request:     &Request{Method: http.MethodPost, Path: f.opts.refreshPath},
		body:        body,
		contentType: contentType,
		requestID:   uuid.New().String(),
		retried:     true,
	})
	if err != nil {
		return f.refreshFailed(err)
	}
	if err := resp.Err(); err != nil {
		return f.refreshFailed(err)
	}

	var payload RefreshResponse
	if err := resp.Decode(&payload); err != nil {
		return f.refreshFailed(err)
	}
	if payload.Token == "" {
		return f.refreshFailed(errors.ErrEmptyToken)
	}

	identity := f.identityFor(ctx, payload, previous)
	if identity == nil {
		return f.refreshFailed(errors.ErrNotAuthenticated)
	}

	f.session.Login(*identity, payload.Token)
	f.opts.logger.Info().Int64("user_id", identity.ID).Msg("credential renewed")
	return payload.Token, nil
}

// identityFor picks the user for a renewed credential: the one the endpoint
// returned, else the one the credential itself names, else the one the
// session knew before the renewal.
func (f *Factory) identityFor(ctx context.Context, payload RefreshResponse, previous *users.Identity) *users.Identity {
	if payload.User != nil {
		return payload.User
	}
	if f.opts.resolver != nil {
		identity, err := f.opts.resolver.ResolveIdentity(ctx, payload.Token)
		if err == nil && identity != nil {
			return identity
		}
		f.opts.logger.Warn().Err(err).Msg("could not resolve user from renewed credential")
	}
	if previous != nil {
		f.opts.logger.Debug().Int64("user_id", previous.ID).Msg("refresh response has no user, keeping previous identity")
	}
	return previous
}

func (f *Factory) refreshFailed(cause error) (string, error) {
	err := fmt.Errorf("%w: %w", errors.ErrRefreshFailed, cause)
	f.invalidate(err)
	return "", err
}

// invalidate clears the session after a failed renewal.
func (f *Factory) invalidate(err error) {
	f.session.Logout()
	f.opts.logger.Error().Err(err).Msg("credential renewal failed, session cleared")
}

func (f *Factory) roundTrip(ctx context.Context, a attempt) (*Response, error) {
	var body io.Reader
	if a.body != nil {
		body = bytes.NewReader(a.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, a.request.Method, f.baseURL+absPath(a.request.Path), body)
	if err != nil {
		return nil, errors.Wrapf(err, "[Gateway] failed to build request")
	}

	httpReq.Header.Set("Accept", contentTypeJSON)
	if a.contentType != "" {
		httpReq.Header.Set("Content-Type", a.contentType)
	}
	if a.requestID != "" {
		httpReq.Header.Set(headerRequestID, a.requestID)
	}
	for key, values := range a.request.Header {
		httpReq.Header.Del(key)
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if a.credential != "" {
		(&oauth2.Token{AccessToken: a.credential, TokenType: "Bearer"}).SetAuthHeader(httpReq)
	}

	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "[Gateway] failed to read response body")
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

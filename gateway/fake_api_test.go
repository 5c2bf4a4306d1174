package gateway_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-storefront-client/gateway"
	"github.com/jrsteele09/go-storefront-client/sessions"
	"github.com/jrsteele09/go-storefront-client/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	staleToken = "expired-token"
	freshToken = "renewed-token"
)

var testUser = users.Identity{ID: 7, Email: "seller@example.com"}

// fakeAPI accepts freshToken on resource routes, answers 401 to anything
// else and hands out freshToken from the refresh endpoint.
type fakeAPI struct {
	server *httptest.Server

	refreshCalls  atomic.Int32
	resourceCalls atomic.Int32

	mu            sync.Mutex
	refreshStatus int               // non-zero: refresh fails with this status
	refreshUser   *users.Identity   // user returned by refresh, nil omits it
	refreshGate   chan struct{}     // non-nil: refresh blocks until closed
	alwaysDeny    bool              // resources reject every token
	seen          []recordedRequest // resource requests in arrival order
	status        map[string]int    // fixed status per resource path
}

type recordedRequest struct {
	Path          string
	Authorization string
	RequestID     string
	Body          string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	api := &fakeAPI{refreshUser: &testUser, status: map[string]int{}}
	api.server = httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(func() {
		api.release()
		api.server.Close()
	})
	return api
}

func (api *fakeAPI) baseURL() string {
	return api.server.URL + "/api"
}

func (api *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/api/auth/refresh":
		api.refreshCalls.Add(1)
		api.mu.Lock()
		gate, status, user := api.refreshGate, api.refreshStatus, api.refreshUser
		api.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		if status != 0 {
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "refresh token expired"})
			return
		}
		_ = json.NewEncoder(w).Encode(gateway.RefreshResponse{Token: freshToken, User: user})

	case "/api/auth/login":
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Invalid credentials"})

	default:
		api.resourceCalls.Add(1)
		body, _ := io.ReadAll(r.Body)

		api.mu.Lock()
		api.seen = append(api.seen, recordedRequest{
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
			Body:          string(body),
		})
		deny, fixed := api.alwaysDeny, api.status[r.URL.Path]
		api.mu.Unlock()

		if fixed != 0 {
			w.WriteHeader(fixed)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "fixed status"})
			return
		}
		if deny || r.Header.Get("Authorization") != "Bearer "+freshToken {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "token expired"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"path": strings.TrimPrefix(r.URL.Path, "/api")})
	}
}

func (api *fakeAPI) holdRefresh() {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.refreshGate = make(chan struct{})
}

func (api *fakeAPI) release() {
	api.mu.Lock()
	defer api.mu.Unlock()
	if api.refreshGate != nil {
		close(api.refreshGate)
		api.refreshGate = nil
	}
}

func (api *fakeAPI) failRefresh(status int) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.refreshStatus = status
}

func (api *fakeAPI) omitRefreshUser() {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.refreshUser = nil
}

func (api *fakeAPI) denyAll() {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.alwaysDeny = true
}

func (api *fakeAPI) fixStatus(path string, status int) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.status[path] = status
}

func (api *fakeAPI) requests() []recordedRequest {
	api.mu.Lock()
	defer api.mu.Unlock()
	return append([]recordedRequest(nil), api.seen...)
}

// countingSession records how often the gateway invalidates the session.
type countingSession struct {
	*sessions.Store
	logouts atomic.Int32
}

func (s *countingSession) Logout() {
	s.logouts.Add(1)
	s.Store.Logout()
}

func signedInSession() *countingSession {
	s := &countingSession{Store: sessions.NewStore()}
	s.Store.Login(testUser, staleToken)
	return s
}

func newFactory(t *testing.T, api *fakeAPI, session gateway.Session, opts ...gateway.Option) *gateway.Factory {
	t.Helper()

	opts = append([]gateway.Option{gateway.WithLogger(zerolog.Nop())}, opts...)
	f, err := gateway.NewFactory(api.baseURL(), session, opts...)
	require.NoError(t, err)
	return f
}

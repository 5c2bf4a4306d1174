package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-storefront-client/auth"
	fakecatalogrepo "github.com/jrsteele09/go-storefront-client/catalog/repofake"
	"github.com/jrsteele09/go-storefront-client/gateway"
	"github.com/jrsteele09/go-storefront-client/internal/config"
	"github.com/jrsteele09/go-storefront-client/internal/errors"
	"github.com/jrsteele09/go-storefront-client/server"
	"github.com/jrsteele09/go-storefront-client/sessions"
	"github.com/jrsteele09/go-storefront-client/storefront"
	"github.com/jrsteele09/go-storefront-client/token"
	"github.com/jrsteele09/go-storefront-client/token/keys"
	refreshrepofake "github.com/jrsteele09/go-storefront-client/token/refresh/repofake"
	fakeuserrepo "github.com/jrsteele09/go-storefront-client/users/repofake"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/publicsuffix"
)

const (
	sellerID = int64(1)
	buyerID  = int64(2)
)

func TestMain(m *testing.M) {
	log.Logger = zerolog.Nop()
	os.Exit(m.Run())
}

// testFixture runs the dev API on an httptest server and wires a client
// stack against it
type testFixture struct {
	server       *httptest.Server
	repos        server.Repos
	keyPair      *keys.KeyPair
	config       config.Config
	refreshCalls atomic.Int32
	clockOffset  atomic.Int64
}

func (fx *testFixture) tokenNow() time.Time {
	return time.Now().Add(time.Duration(fx.clockOffset.Load()))
}

// expireAccessTokens moves the token clock past the access token lifetime
func (fx *testFixture) expireAccessTokens() {
	fx.clockOffset.Store(int64(time.Hour))
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	fx := &testFixture{
		config: config.New(),
		repos: server.Repos{
			Users:         fakeuserrepo.NewFakeUserRepo(),
			RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
			Catalog:       fakecatalogrepo.NewFakeCatalogRepo(),
		},
	}
	now := time.Now()
	require.NoError(t, server.SeedDemoData(fx.repos, now))

	kp, err := keys.GenerateRSAKeyPair("test", 2048)
	require.NoError(t, err)
	fx.keyPair = kp

	srv, err := server.New(fx.config, fx.repos, keys.NewKeyPairSigner(kp), server.WithNowTime(func() time.Time { return now }),
		server.WithTokenClock(fx.tokenNow),
	)
	require.NoError(t, err)

	fx.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == server.RouteAuthRefresh {
			fx.refreshCalls.Add(1)
		}
		srv.ServeHTTP(w, r)
	}))
	t.Cleanup(fx.server.Close)
	return fx
}

// client is one application instance: a session plus the services over it
type client struct {
	session *sessions.Store
	factory *gateway.Factory
	auth    *auth.Service
	shop    *storefront.Service
}

func (fx *testFixture) newClient(t *testing.T, opts ...gateway.Option) *client {
	t.Helper()

	session := sessions.NewStore()
	opts = append([]gateway.Option{
		gateway.WithLogger(zerolog.Nop()),
		gateway.WithIdentityResolver(token.NewStaticVerifier(fx.config.GetTokenIssuer(), fx.keyPair.PublicKey)),
	}, opts...)
	factory, err := gateway.NewFactory(fx.server.URL+server.RouteAPIPrefix, session, opts...)
	require.NoError(t, err)

	return &client{
		session: session,
		factory: factory,
		auth:    auth.NewService(factory, auth.WithLogger(zerolog.Nop())),
		shop:    storefront.NewService(factory),
	}
}

func (fx *testFixture) signedIn(t *testing.T, email string) *client {
	t.Helper()
	c := fx.newClient(t)
	_, err := c.auth.Login(context.Background(), email, server.DemoPassword, "test")
	require.NoError(t, err)
	return c
}

func TestLoginAndBrowse(t *testing.T) {
	fx := setupTestFixture(t)
	seller := fx.signedIn(t, server.DemoSellerEmail)
	ctx := context.Background()

	require.Equal(t, sellerID, seller.session.Identity().ID)

	mine, err := seller.shop.MyLots(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 3)

	all, err := seller.shop.ListLots(ctx, storefront.DefaultLotFilters())
	require.NoError(t, err)
	require.Len(t, all, 4)

	active, err := seller.shop.ListLots(ctx, storefront.LotFilters{Status: storefront.LotStatusActive, SortBy: storefront.SortEndingSoon})
	require.NoError(t, err)
	require.Len(t, active, 2)
	require.Equal(t, "Ceramic vase", active[0].Title)

	lot, err := seller.shop.GetLot(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "Oak dining table", lot.Title)
	require.Equal(t, storefront.LotStatusActive, lot.Status)

	profile, err := seller.shop.SellerProfile(ctx, sellerID)
	require.NoError(t, err)
	require.Equal(t, "Olena Koval", profile.Name)
	require.Equal(t, 1, profile.ReviewsCount)
	require.InDelta(t, 5, profile.AverageRating, 0.001)
}

func TestLoginWithWrongPassword(t *testing.T) {
	fx := setupTestFixture(t)
	c := fx.newClient(t)

	_, err := c.auth.Login(context.Background(), server.DemoSellerEmail, "nope", "")
	require.ErrorIs(t, err, errors.ErrInvalidCredentials)

	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Invalid email or password", apiErr.Message)
	require.Zero(t, fx.refreshCalls.Load())
}

func TestExpiredCredentialIsRenewedOnceForConcurrentRequests(t *testing.T) {
	fx := setupTestFixture(t)
	seller := fx.signedIn(t, server.DemoSellerEmail)
	stale := seller.session.Credential()

	fx.expireAccessTokens()

	const n = 6
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = seller.shop.MyLots(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), fx.refreshCalls.Load())
	require.NotEqual(t, stale, seller.session.Credential())
	require.Equal(t, sellerID, seller.session.Identity().ID)
	require.False(t, seller.factory.RefreshInFlight())
	require.Zero(t, seller.factory.PendingRefreshWaiters())
}

func TestRevokedRefreshTokenSignsOut(t *testing.T) {
	fx := setupTestFixture(t)
	seller := fx.signedIn(t, server.DemoSellerEmail)

	stored, err := fx.repos.RefreshTokens.GetByUserID(sellerID)
	require.NoError(t, err)
	require.NoError(t, fx.repos.RefreshTokens.Delete(stored.Token))

	fx.expireAccessTokens()

	_, err = seller.shop.MyLots(context.Background())
	require.ErrorIs(t, err, errors.ErrRefreshFailed)
	require.ErrorIs(t, err, errors.ErrUnauthorized)
	require.False(t, seller.session.IsAuthenticated())
	require.Equal(t, int32(1), fx.refreshCalls.Load())
}

func TestRestoreFromCookie(t *testing.T) {
	fx := setupTestFixture(t)
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	require.NoError(t, err)
	httpClient := &http.Client{Jar: jar, Timeout: 5 * time.Second}

	first := fx.newClient(t, gateway.WithHTTPClient(httpClient))
	_, err = first.auth.Login(context.Background(), server.DemoBuyerEmail, server.DemoPassword, "laptop")
	require.NoError(t, err)

	// A restarted application keeps only the cookie jar
	second := fx.newClient(t, gateway.WithHTTPClient(httpClient))
	identity, err := second.auth.Restore(context.Background())
	require.NoError(t, err)
	require.Equal(t, buyerID, identity.ID)
	require.Equal(t, server.DemoBuyerEmail, second.session.Identity().Email)

	second.auth.Logout(context.Background())
	require.False(t, second.session.IsAuthenticated())

	_, err = fx.newClient(t, gateway.WithHTTPClient(httpClient)).auth.Restore(context.Background())
	require.ErrorIs(t, err, errors.ErrUnauthorized)
}

func TestDeleteLotOwnership(t *testing.T) {
	fx := setupTestFixture(t)
	seller := fx.signedIn(t, server.DemoSellerEmail)
	buyer := fx.signedIn(t, server.DemoBuyerEmail)
	ctx := context.Background()

	require.ErrorIs(t, buyer.shop.DeleteLot(ctx, 1), errors.ErrForbidden)
	require.NoError(t, seller.shop.DeleteLot(ctx, 1))

	_, err := seller.shop.GetLot(ctx, 1)
	require.ErrorIs(t, err, errors.ErrNotFound)
	require.ErrorIs(t, seller.shop.DeleteLot(ctx, 1), errors.ErrNotFound)
}

func TestReviewRules(t *testing.T) {
	fx := setupTestFixture(t)
	seller := fx.signedIn(t, server.DemoSellerEmail)
	buyer := fx.signedIn(t, server.DemoBuyerEmail)
	ctx := context.Background()

	// the seeded review is the buyer's
	err := buyer.shop.CreateReview(ctx, storefront.ReviewInput{TargetUserID: sellerID, Rating: 4})
	require.ErrorIs(t, err, errors.ErrConflict)

	err = seller.shop.CreateReview(ctx, storefront.ReviewInput{TargetUserID: sellerID, Rating: 4})
	require.True(t, errors.IsAPIStatus(err, http.StatusBadRequest))

	require.NoError(t, seller.shop.CreateReview(ctx, storefront.ReviewInput{TargetUserID: buyerID, Rating: 3, Comment: " prompt payment "}))

	profile, err := buyer.shop.SellerProfile(ctx, buyerID)
	require.NoError(t, err)
	require.Len(t, profile.Reviews, 1)
	review := profile.Reviews[0]
	require.Equal(t, "prompt payment", review.Comment)
	require.Equal(t, "Olena Koval", review.ReviewerName)

	require.ErrorIs(t, buyer.shop.UpdateReview(ctx, review.ID, 1, "mine now"), errors.ErrForbidden)
	require.NoError(t, seller.shop.UpdateReview(ctx, review.ID, 5, "great buyer"))

	profile, err = buyer.shop.SellerProfile(ctx, buyerID)
	require.NoError(t, err)
	require.Equal(t, 5, profile.Reviews[0].Rating)

	require.ErrorIs(t, buyer.shop.DeleteReview(ctx, review.ID), errors.ErrForbidden)
	require.NoError(t, seller.shop.DeleteReview(ctx, review.ID))

	_, err = buyer.shop.SellerProfile(ctx, 99)
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	fx := setupTestFixture(t)

	for _, authorization := range []string{"", "Basic abc", "Bearer not-a-jwt"} {
		req, err := http.NewRequest(http.MethodGet, fx.server.URL+server.RouteMyLots, nil)
		require.NoError(t, err)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)

		var body struct {
			Message string `json:"message"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.NotEmpty(t, body.Message)
	}
}

func TestListLotsRejectsUnknownStatusAndSort(t *testing.T) {
	fx := setupTestFixture(t)

	for _, query := range []string{"?status=42", "?sortBy=-7"} {
		resp, err := http.Get(fx.server.URL + server.RouteLots + query)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, query)
	}
}

func TestSignedOutClientGetsNotAuthenticated(t *testing.T) {
	fx := setupTestFixture(t)
	c := fx.newClient(t)

	lots, err := c.shop.ListLots(context.Background(), storefront.DefaultLotFilters())
	require.NoError(t, err)
	require.Len(t, lots, 4)

	_, err = c.shop.MyLots(context.Background())
	require.ErrorIs(t, err, errors.ErrNotAuthenticated)
	require.Zero(t, fx.refreshCalls.Load())
}

func TestJWKSVerifiesIssuedTokens(t *testing.T) {
	fx := setupTestFixture(t)
	seller := fx.signedIn(t, server.DemoSellerEmail)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	verifier := token.NewRemoteVerifier(ctx, fx.config.GetTokenIssuer(), fx.server.URL+server.RouteWellKnownJWKS)
	identity, err := verifier.ResolveIdentity(ctx, seller.session.Credential())
	require.NoError(t, err)
	require.Equal(t, sellerID, identity.ID)
	require.Equal(t, server.DemoSellerEmail, identity.Email)
}

func TestCorsPreflight(t *testing.T) {
	fx := setupTestFixture(t)

	req, err := http.NewRequest(http.MethodOptions, fx.server.URL+server.RouteLots, nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))

	req.Header.Set("Origin", "http://evil.test")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteAPIPrefix = "/api"

	// Auth Routes
	RouteAuthLogin   = RouteAPIPrefix + "/auth/login"
	RouteAuthRefresh = RouteAPIPrefix + "/auth/refresh"
	RouteAuthLogout  = RouteAPIPrefix + "/auth/logout"

	// Lot Routes
	RouteLots   = RouteAPIPrefix + "/lots"
	RouteMyLots = RouteAPIPrefix + "/lots/my"
	RouteLot    = RouteAPIPrefix + "/lots/{id}"

	// Review Routes
	RouteReviews     = RouteAPIPrefix + "/reviews"
	RouteReview      = RouteAPIPrefix + "/reviews/{id}"
	RouteUserReviews = RouteAPIPrefix + "/reviews/user/{id}"

	// Key publication
	RouteWellKnownJWKS = "/.well-known/jwks.json"
)

package server

func (s *Server) initRoutes() {
	// AUTH
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))

	// LOTS
	s.RegisterRouteHandler("GET "+RouteLots, ChainMiddleware(s.ListLotsHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteMyLots, ChainMiddleware(s.MyLotsHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("GET "+RouteLot, ChainMiddleware(s.GetLotHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("DELETE "+RouteLot, ChainMiddleware(s.DeleteLotHandler(), s.APIMiddleware(s.RequireAuth())...))

	// REVIEWS
	s.RegisterRouteHandler("GET "+RouteUserReviews, ChainMiddleware(s.SellerProfileHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteReviews, ChainMiddleware(s.CreateReviewHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("PUT "+RouteReview, ChainMiddleware(s.UpdateReviewHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("DELETE "+RouteReview, ChainMiddleware(s.DeleteReviewHandler(), s.APIMiddleware(s.RequireAuth())...))

	s.RegisterRouteHandler("GET "+RouteWellKnownJWKS, ChainMiddleware(s.JWKSHandler(), s.APIMiddleware()...))

	// CORS preflight for every API route
	s.RegisterRouteHandler("OPTIONS "+RouteAPIPrefix+"/", ChainMiddleware(s.PreflightHandler(), s.APIMiddleware()...))
}

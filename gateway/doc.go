// Package gateway is the authenticated HTTP client of the storefront API.
//
// A Factory is bound to one API base address and one application session.
// Clients produced by the factory attach the session's bearer credential to
// outbound requests and intercept 401 responses: the first failing request
// renews the credential through the refresh endpoint, every other request
// that fails while that renewal is in flight waits for its outcome instead
// of issuing a refresh of its own, and each of them is then replayed once
// with the renewed credential. A failed renewal clears the session once and
// fails every waiting request with the same error.
//
// Renewal state lives in the factory. Independent factories never share it.
package gateway

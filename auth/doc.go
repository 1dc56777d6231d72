// Package auth authenticates requests to the employee API.
//
// Two methods exist: a static API key sent in X-API-Key, and an HS256 JWT
// bearer token. Key material for both comes from resolved secrets; this
// package never reads the environment itself. A CompositeAuthenticator
// tries each configured method in order.
package auth

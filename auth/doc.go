// Package auth is a mountable extension that authenticates requests with a
// bearer token.
//
// Tokens come from a Source: a Signer mints HS256 JWTs locally, and a
// SessionSource fetches them from the backend session endpoint. A Manager
// caches the current token, renews it shortly before it expires, and
// collapses concurrent renewals into a single fetch. Its Hook sets
// Authorization: Bearer <token> on every request.
//
// Mount it like any other extension:
//
//	apiclient.MustRegister(auth.ExtensionName, auth.Factory(auth.Config{
//		Session: auth.SessionConfig{Body: map[string]string{"name": user, "password": pass}},
//	}))
//
// The token is dropped when the client triggers its dispose event.
package auth

// Package auth resolves who is calling and decides whether they may.
//
// Three policies are supported, selected with AUTH_MODE:
//   - "none": no credentials are checked (default). Routes that need a
//     teacher read it from the query string or JSON body.
//   - "cookie": local accounts. POST /login sets a signed session cookie.
//   - "remote": every request carries an Authentication header, validated
//     against THR on each call.
//
// The remote header has the form
//
//	MYAUTH user:"<name>", role:"<role>", token:"<hex>"
//
// # Configuration
//
//	AUTH_MODE=cookie
//	AUTH_SESSION_SECRET=<hex-32-bytes>  # Generated if empty
//	AUTH_SESSION_LIFETIME=24h
//	AUTH_BCRYPT_COST=12
//	AUTH_SECURE_COOKIES=true
//	AUTH_ADMIN_USERS=gb                 # Promoted to admin on login
//
// # Usage
//
//	mw := auth.NewMiddleware(resolver, cfg.Auth.Mode)
//	router.GET("/students", mw.Require(auth.MinRole(entities.UserRoleParticipant)), handler)
//
// Handlers read the caller with auth.GetIdentity(c). Every refusal is a 403
// with the body {"error":"Forbidden"}.
package auth

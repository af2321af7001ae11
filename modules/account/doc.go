// Package account exposes the identity core over HTTP as a JSON API.
//
// All routes live under /auth. Routes that act on the caller's account
// require an access token in "Authorization: Bearer"; /2fa/verify takes the
// temp token issued by /login in the same header. Login, 2FA verification
// and token refresh are rate limited per client address.
//
// Errors are rendered as
//
//	{"error":{"code":"conflict","message":"email already registered"}}
//
// with the status chosen by auth.KindOf. Validation errors add a details
// object keyed by field.
package account

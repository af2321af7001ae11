// Package auth is the identity and session core: it issues and rotates
// sessions, authenticates passwords, gates logins behind TOTP step-up and
// links federated (OAuth) identities to local accounts.
//
// # Tokens
//
// A Session is a pair of a signed access token (HS256, 15 minutes, never
// stored) and an opaque refresh token (32 random bytes, hex). Only the
// SHA-256 digest of the refresh token is persisted. Rotating a refresh token
// consumes its row atomically, so of two concurrent presentations exactly one
// succeeds.
//
// Temporary tokens carry a purpose claim. A token minted after a password
// check for a 2FA account is only accepted by TwoFactorService.VerifyStepUp;
// a token minted for an unknown federated identity is only accepted by
// OAuthService.CompleteSignup.
//
// # Services
//
//	issuer, _ := auth.NewTokenIssuer(cfg, sessions)
//	rotator := auth.NewSessionRotator(issuer, sessions, identities)
//	passwords := auth.NewPasswordService(identities, profiles, issuer, rotator)
//	twoFactor := auth.NewTwoFactorService(identities, sealer, issuer, rotator)
//	oauth := auth.NewOAuthService(adapter, states, identities, profiles, issuer, rotator)
//
// Storage is abstracted behind CredentialStore, SessionStore and StateStore.
// Implementations live in svc/storage.
//
// # Errors
//
// All exported errors are sentinels. KindOf maps any error returned by this
// package to a Kind that the transport layer turns into a status code.
package auth

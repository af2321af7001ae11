// Package token generates opaque bearer tokens and the digests stored in
// their place.
//
// Refresh tokens carry no payload: they are 32 random bytes rendered as hex.
// Only the SHA-256 digest is persisted, so a leaked table cannot be replayed
// against the API. Lookups hash the presented value and compare digests.
//
//	raw, digest, err := token.Generate()
//	// hand raw to the client, store digest
//	token.Hash(raw) == digest
package token

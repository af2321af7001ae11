// Package secrets seals small values (TOTP seeds, provider tokens) before
// they are written to storage.
//
// A Sealer holds a 32-byte master key loaded once at startup. For every Seal
// call a scope string (usually the owning record's id) is mixed in through
// HKDF-SHA-256 to derive a per-scope AES-256-GCM key, and the scope is also
// bound as additional authenticated data. A ciphertext copied onto another
// record therefore fails to open.
//
//	key, _ := secrets.ParseKey(os.Getenv("TOTP_ENCRYPTION_KEY"))
//	sealer, _ := secrets.NewSealer(key)
//	ct, _ := sealer.Seal(userID.String(), seed)
//	seed, _ = sealer.Open(userID.String(), ct)
//
// The output is base64(nonce || ciphertext || tag). Errors wrap the package
// sentinels; compare with errors.Is.
package secrets

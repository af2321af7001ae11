// Package totp implements RFC 6238 time-based one-time passwords: secret
// generation, otpauth:// provisioning URIs and code generation/validation
// with a configurable clock-skew window.
//
//	secret, _ := totp.GenerateSecretKey()
//	uri, _ := totp.GetTOTPURI(totp.TOTPParams{
//	    Secret:      secret,
//	    AccountName: "alice@example.com",
//	    Issuer:      "Arena",
//	})
//	ok, _ := totp.ValidateTOTP(secret, "123456") // current window ±1
//
// Secrets are Base32 (RFC 4648, no padding). Codes are 6 digits over 30 second
// windows with HMAC-SHA1, the defaults every mainstream authenticator app
// understands. The package does not persist or encrypt secrets; callers seal
// them before storage.
//
// Errors are sentinels (ErrInvalidSecret, ErrInvalidOTP, ...) that may be
// joined with the underlying cause; compare with errors.Is.
package totp

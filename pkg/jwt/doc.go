// Package jwt signs and verifies HS256 JSON Web Tokens on top of
// github.com/golang-jwt/jwt/v5 and provides HTTP helpers for extracting
// tokens from requests.
//
// A Service holds the signing key, the expected issuer and a clock. Claims
// types embed RegisteredClaims and add their own fields:
//
//	type Claims struct {
//	    jwt.RegisteredClaims
//	    Email string `json:"email"`
//	}
//
//	svc, err := jwt.New(key, jwt.WithIssuer("authd"))
//	tok, err := svc.Generate(Claims{RegisteredClaims: jwt.RegisteredClaims{
//	    Subject:   id,
//	    ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
//	}})
//
//	var c Claims
//	if err := svc.Parse(tok, &c); err != nil {
//	    // ErrExpiredToken or ErrInvalidToken
//	}
//
// Only HS256 is accepted on parse, which rules out "none" and algorithm
// confusion. Expiry is mandatory.
//
// Middleware wires a TokenExtractorFunc (Bearer header by default) and a
// VerifyFunc into an http.Handler chain; the VerifyFunc decides which claims
// type to parse and what to put into the request context.
package jwt

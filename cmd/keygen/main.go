// Command keygen prints fresh values for JWT_SECRET and TOTP_ENCRYPTION_KEY.
package main

import (
	"fmt"
	"log"

	"github.com/ftarena/authcore/pkg/secrets"
)

func main() {
	totpKey, err := secrets.GenerateEncodedKey()
	if err != nil {
		log.Fatalf("Failed to generate TOTP encryption key: %v", err)
	}
	jwtSecret, err := secrets.GenerateEncodedKey()
	if err != nil {
		log.Fatalf("Failed to generate JWT secret: %v", err)
	}

	fmt.Printf("JWT_SECRET=%s\n", jwtSecret)
	fmt.Printf("TOTP_ENCRYPTION_KEY=%s\n", totpKey)
}

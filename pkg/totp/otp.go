package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultDigits    = 6      // Standard 6-digit TOTP codes
	DefaultPeriod    = 30     // 30-second validity window (RFC 6238 standard)
	DefaultAlgorithm = "SHA1" // HMAC-SHA1 algorithm (RFC 6238 standard)
	DefaultSkew      = 1      // Windows accepted on each side of the current one
)

var (
	// ValidateSecretKeyRegex ensures Base32 format: uppercase A-Z, digits 2-7, optional padding
	ValidateSecretKeyRegex = regexp.MustCompile("^[A-Z2-7]+=*$")

	otpRegex = regexp.MustCompile(fmt.Sprintf(`^\d{%d}$`, DefaultDigits))

	b32 = base32.StdEncoding.WithPadding(base32.NoPadding)
)

// TOTPParams contains the parameters for TOTP URI generation
type TOTPParams struct {
	Secret      string // Base32-encoded TOTP secret key (required)
	AccountName string // User identifier like email (required)
	Issuer      string // Service name displayed in authenticator apps (required)
	Algorithm   string // HMAC algorithm (optional, defaults to SHA1)
	Digits      int    // Number of digits in generated codes (optional, defaults to 6)
	Period      int    // Code validity period in seconds (optional, defaults to 30)
}

// Validate ensures all required TOTP parameters are present and valid
func (p TOTPParams) Validate() error {
	if p.Secret == "" {
		return ErrMissingSecret
	}
	if !ValidateSecretKeyRegex.MatchString(p.Secret) {
		return ErrInvalidSecret
	}
	if p.AccountName == "" {
		return ErrMissingAccountName
	}
	if p.Issuer == "" {
		return ErrMissingIssuer
	}
	return nil
}

// GetDefaults returns a copy with RFC 6238 standard defaults applied to zero-valued fields
func (p TOTPParams) GetDefaults() TOTPParams {
	if p.Algorithm == "" {
		p.Algorithm = DefaultAlgorithm
	}
	if p.Digits == 0 {
		p.Digits = DefaultDigits
	}
	if p.Period == 0 {
		p.Period = DefaultPeriod
	}
	return p
}

// GenerateSecretKey generates a new Base32-encoded 160-bit secret key.
func GenerateSecretKey() (string, error) {
	secret := make([]byte, 20)
	if _, err := rand.Read(secret); err != nil {
		return "", errors.Join(ErrFailedToGenerateSecretKey, err)
	}
	return b32.EncodeToString(secret), nil
}

// GetTOTPURI creates a properly encoded TOTP URI for use with authenticator apps.
// https://github.com/google/google-authenticator/wiki/Key-Uri-Format
func GetTOTPURI(params TOTPParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}

	params = params.GetDefaults()

	label := url.PathEscape(params.Issuer) + ":" + url.PathEscape(params.AccountName)

	query := url.Values{}
	query.Set("secret", params.Secret)
	query.Set("issuer", params.Issuer)
	query.Set("algorithm", params.Algorithm)
	query.Set("digits", strconv.Itoa(params.Digits))
	query.Set("period", strconv.Itoa(params.Period))

	return "otpauth://totp/" + label + "?" + query.Encode(), nil
}

// ValidateTOTP validates otp against the current window with DefaultSkew.
func ValidateTOTP(secret, otp string) (bool, error) {
	return ValidateTOTPAt(secret, otp, time.Now(), DefaultSkew)
}

// ValidateTOTPAt validates otp against the window containing t, also accepting
// up to skew windows before and after it to absorb clock drift.
// A well-formed but wrong code returns (false, nil).
func ValidateTOTPAt(secret, otp string, t time.Time, skew int) (bool, error) {
	_, ok, err := MatchTOTPAt(secret, otp, t, skew)
	return ok, err
}

// MatchTOTPAt is ValidateTOTPAt that also reports the time step the code
// belongs to, so callers can refuse a step they have already accepted.
// When several windows match, the latest one is reported.
func MatchTOTPAt(secret, otp string, t time.Time, skew int) (int64, bool, error) {
	if skew < 0 {
		return 0, false, ErrInvalidSkew
	}

	key, err := decodeSecret(secret)
	if err != nil {
		return 0, false, errors.Join(ErrFailedToValidateTOTP, err)
	}

	otp = strings.TrimSpace(otp)
	if !otpRegex.MatchString(otp) {
		return 0, false, ErrInvalidOTP
	}

	counter := t.Unix() / DefaultPeriod
	matched := 0
	step := 0
	// Every candidate window is checked so timing does not reveal which one matched.
	for i := -skew; i <= skew; i++ {
		c := counter + int64(i)
		code := formatCode(GenerateHOTP(key, c, DefaultDigits))
		eq := subtle.ConstantTimeCompare([]byte(code), []byte(otp))
		matched |= eq
		step = subtle.ConstantTimeSelect(eq, int(c), step)
	}

	return int64(step), matched == 1, nil
}

// GenerateTOTP generates the code for the current 30-second window.
func GenerateTOTP(secret string) (string, error) {
	return GenerateTOTPWithTime(secret, time.Now())
}

// GenerateTOTPWithTime generates the code for the 30-second window containing t.
func GenerateTOTPWithTime(secret string, t time.Time) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", errors.Join(ErrFailedToGenerateTOTP, err)
	}

	return formatCode(GenerateHOTP(key, t.Unix()/DefaultPeriod, DefaultDigits)), nil
}

// GenerateHOTP implements the RFC 4226 HMAC-based One-Time Password algorithm.
func GenerateHOTP(key []byte, counter int64, digits int) int {
	var counterBytes [8]byte
	binary.BigEndian.PutUint64(counterBytes[:], uint64(counter))

	mac := hmac.New(sha1.New, key)
	mac.Write(counterBytes[:])
	hash := mac.Sum(nil)

	// Dynamic truncation: low nibble of the last byte is the offset
	offset := hash[len(hash)-1] & 0x0f
	code := binary.BigEndian.Uint32(hash[offset:offset+4]) & 0x7fffffff

	return int(code % uint32(math.Pow10(digits)))
}

func decodeSecret(secret string) ([]byte, error) {
	secret = strings.TrimRight(strings.TrimSpace(strings.ToUpper(secret)), "=")
	if secret == "" || !ValidateSecretKeyRegex.MatchString(secret) {
		return nil, ErrInvalidSecret
	}

	key, err := b32.DecodeString(secret)
	if err != nil {
		return nil, errors.Join(ErrInvalidSecret, err)
	}
	return key, nil
}

func formatCode(code int) string {
	return fmt.Sprintf("%0*d", DefaultDigits, code)
}

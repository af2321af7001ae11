package validator

import (
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	PasswordMinLen = 8
	PasswordMaxLen = 72 // bcrypt ignores input past 72 bytes
	UsernameMinLen = 3
	UsernameMaxLen = 20
	TOTPCodeLen    = 6
)

func Required(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: ValidationError{Field: field, Message: "is required"},
	}
}

// ValidEmail accepts a bare addr-spec with a dotted domain.
func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if value == "" || len(value) > 254 {
				return false
			}
			addr, err := mail.ParseAddress(value)
			if err != nil || addr.Address != value || addr.Name != "" {
				return false
			}
			local, domain, ok := strings.Cut(value, "@")
			if !ok || local == "" {
				return false
			}
			return strings.Contains(domain, ".") &&
				!strings.HasPrefix(domain, ".") &&
				!strings.HasSuffix(domain, ".")
		},
		Error: ValidationError{Field: field, Message: "must be a valid email address"},
	}
}

// Password requires PasswordMinLen..PasswordMaxLen bytes with at least one letter and one digit.
func Password(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if len(value) < PasswordMinLen || len(value) > PasswordMaxLen {
				return false
			}
			var letter, digit bool
			for _, r := range value {
				switch {
				case unicode.IsLetter(r):
					letter = true
				case unicode.IsDigit(r):
					digit = true
				}
			}
			return letter && digit
		},
		Error: ValidationError{
			Field:   field,
			Message: "must be 8 to 72 characters and contain a letter and a digit",
		},
	}
}

// Username allows ASCII letters, digits, underscore and hyphen.
func Username(field, value string) Rule {
	return Rule{
		Check: func() bool {
			n := utf8.RuneCountInString(value)
			if n < UsernameMinLen || n > UsernameMaxLen {
				return false
			}
			for _, r := range value {
				if !isUsernameRune(r) {
					return false
				}
			}
			return true
		},
		Error: ValidationError{
			Field:   field,
			Message: "must be 3 to 20 characters of letters, digits, '_' or '-'",
		},
	}
}

// TOTPCode requires exactly TOTPCodeLen ASCII digits.
func TOTPCode(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if len(value) != TOTPCodeLen {
				return false
			}
			for i := range len(value) {
				if value[i] < '0' || value[i] > '9' {
					return false
				}
			}
			return true
		},
		Error: ValidationError{Field: field, Message: "must be a 6-digit code"},
	}
}

func isUsernameRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-'
}

package password

import (
	"crypto/rand"
	"errors"
	"math/big"
	"unicode/utf8"
)

// MinGeneratedLength is the smallest length [GeneratePassword] accepts.
const MinGeneratedLength = 12

const (
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*()-_=+[]{};:,.<>?"
)

var allChars = upperChars + lowerChars + digitChars + symbolChars

// Complexity is the result of [ValidateComplexity]. Errors lists every
// violated rule, not just the first, so a UI can render a full checklist.
type Complexity struct {
	Valid  bool
	Errors []string
}

// ValidateComplexity checks the password policy: minimum length 8, at
// least one uppercase letter, one lowercase letter, one digit, and one
// non-alphanumeric character.
func ValidateComplexity(password string) Complexity {
	var (
		errs                                    []string
		hasUpper, hasLower, hasDigit, hasSymbol bool
	)

	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	// Length counts characters, not bytes, so multibyte runes do not
	// inflate a short password past the minimum.
	if utf8.RuneCountInString(password) < 8 {
		errs = append(errs, "must be at least 8 characters long")
	}
	if !hasUpper {
		errs = append(errs, "must contain at least one uppercase letter")
	}
	if !hasLower {
		errs = append(errs, "must contain at least one lowercase letter")
	}
	if !hasDigit {
		errs = append(errs, "must contain at least one digit")
	}
	if !hasSymbol {
		errs = append(errs, "must contain at least one special character")
	}

	return Complexity{Valid: len(errs) == 0, Errors: errs}
}

// GeneratePassword returns a random password of the given length that
// always satisfies [ValidateComplexity]. One character per class is
// guaranteed, the remainder is drawn uniformly from the full alphabet,
// and the result is shuffled so the guaranteed characters are not
// predictably positioned. Lengths below [MinGeneratedLength] are rejected.
func GeneratePassword(length int) (string, error) {
	if length < MinGeneratedLength {
		return "", errors.New("password: generated length must be at least 12")
	}

	chars := make([]byte, 0, length)
	for _, class := range []string{upperChars, lowerChars, digitChars, symbolChars} {
		c, err := randomChar(class)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}
	for len(chars) < length {
		c, err := randomChar(allChars)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}

	if err := shuffle(chars); err != nil {
		return "", err
	}
	return string(chars), nil
}

func randomChar(class string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(class))))
	if err != nil {
		return 0, err
	}
	return class[n.Int64()], nil
}

// shuffle is a Fisher-Yates pass driven by crypto/rand.
func shuffle(chars []byte) error {
	for i := len(chars) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return err
		}
		j := n.Int64()
		chars[i], chars[j] = chars[j], chars[i]
	}
	return nil
}

// Package phone validates and normalizes Peruvian mobile numbers into the
// digits-only E.164 form the WhatsApp API expects.
package phone

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	defaultRegion   = "PE"
	peruCountryCode = 51
)

var (
	ErrInvalidFormat = errors.New("invalid phone number format")
	ErrNotPeruvian   = errors.New("only Peruvian numbers (+51) are allowed")
	ErrNotMobile     = errors.New("only mobile numbers are allowed")

	nonDialable = regexp.MustCompile(`[^\d+]`)
)

// Normalize validates a raw phone number and returns it as E.164 digits
// without the leading plus (e.g. "51987654321"). National 9-digit mobile
// numbers and numbers already carrying the 51 prefix are accepted.
func Normalize(raw string) (string, error) {
	clean := nonDialable.ReplaceAllString(raw, "")

	if !strings.HasPrefix(clean, "+") {
		switch {
		case strings.HasPrefix(clean, "51") && len(clean) == 11:
			clean = "+" + clean
		case strings.HasPrefix(clean, "9") && len(clean) == 9:
			clean = "+51" + clean
		default:
			return "", ErrInvalidFormat
		}
	}

	num, err := phonenumbers.Parse(clean, defaultRegion)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	if !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalidFormat
	}

	if num.GetCountryCode() != peruCountryCode {
		return "", ErrNotPeruvian
	}

	switch phonenumbers.GetNumberType(num) {
	case phonenumbers.MOBILE, phonenumbers.FIXED_LINE_OR_MOBILE:
	default:
		return "", ErrNotMobile
	}

	e164 := phonenumbers.Format(num, phonenumbers.E164)
	return strings.TrimPrefix(e164, "+"), nil
}

// Mask hides all but the last four digits of a number for logging.
func Mask(number string) string {
	if len(number) <= 4 {
		return "****"
	}
	return "****" + number[len(number)-4:]
}

package utils

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is assumed for numbers entered without a country code.
const DefaultRegion = "US"

// NormalizePhoneNumber normalizes a phone number to E.164 format, parsing
// numbers without a country code as belonging to region
func NormalizePhoneNumber(phone, region string) (string, error) {
	phone = strings.TrimSpace(phone)

	num, err := phonenumbers.Parse(phone, region)
	if err != nil {
		return "", err
	}

	if !phonenumbers.IsValidNumber(num) {
		return "", phonenumbers.ErrNotANumber
	}

	// Format to E.164 (e.g., +16502530000)
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// DisplayPhone renders a stored phone in E.164 when it parses as a valid
// number and returns it unchanged otherwise
func DisplayPhone(phone string) string {
	if phone == "" {
		return ""
	}
	if len(phone) > 10 && !strings.HasPrefix(phone, "+") {
		// Digits-only storage drops the plus of international numbers.
		if formatted, err := NormalizePhoneNumber("+"+phone, DefaultRegion); err == nil {
			return formatted
		}
	}
	if formatted, err := NormalizePhoneNumber(phone, DefaultRegion); err == nil {
		return formatted
	}
	return phone
}

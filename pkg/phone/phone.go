package phone

import (
	"fmt"

	"github.com/nyaruka/phonenumbers"
)

// ValidationResult describes a parsed phone number.
type ValidationResult struct {
	IsValid             bool   `json:"isValid"`
	E164Format          string `json:"e164Format,omitempty"`
	InternationalFormat string `json:"internationalFormat,omitempty"`
	NationalFormat      string `json:"nationalFormat,omitempty"`
	CountryCode         string `json:"countryCode,omitempty"`
}

// Validate parses a phone number and reports its canonical formats. The
// country code defaults to US for numbers without an international prefix.
func Validate(phone, countryCode string) (*ValidationResult, error) {
	if phone == "" {
		return nil, fmt.Errorf("phone number cannot be empty")
	}
	if countryCode == "" {
		countryCode = "US"
	}

	parsed, err := phonenumbers.Parse(phone, countryCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse phone number: %w", err)
	}

	return &ValidationResult{
		IsValid:             phonenumbers.IsValidNumber(parsed),
		E164Format:          phonenumbers.Format(parsed, phonenumbers.E164),
		InternationalFormat: phonenumbers.Format(parsed, phonenumbers.INTERNATIONAL),
		NationalFormat:      phonenumbers.Format(parsed, phonenumbers.NATIONAL),
		CountryCode:         phonenumbers.GetRegionCodeForNumber(parsed),
	}, nil
}

// Normalize converts a phone number to E.164, rejecting invalid numbers.
func Normalize(phone, countryCode string) (string, error) {
	if phone == "" {
		return "", fmt.Errorf("phone number cannot be empty")
	}
	if countryCode == "" {
		countryCode = "US"
	}

	parsed, err := phonenumbers.Parse(phone, countryCode)
	if err != nil {
		return "", fmt.Errorf("failed to parse phone number: %w", err)
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", fmt.Errorf("invalid phone number")
	}
	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}

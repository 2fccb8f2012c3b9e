package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// PhoneComponents represents the parsed components of a phone number
type PhoneComponents struct {
	DDI   string `json:"ddi"`
	DDD   string `json:"ddd"`
	Valor string `json:"valor"`
	Full  string `json:"full"`
}

var nonPhoneChars = regexp.MustCompile(`[^\d+]`)

// ParsePhoneNumber parses a phone number string and returns its components.
// Numbers without a country code are assumed Brazilian.
func ParsePhoneNumber(phoneString string) (*PhoneComponents, error) {
	cleanPhone := nonPhoneChars.ReplaceAllString(strings.TrimSpace(phoneString), "")

	if !strings.HasPrefix(cleanPhone, "+") {
		if strings.HasPrefix(cleanPhone, "55") && len(cleanPhone) >= 12 {
			cleanPhone = "+" + cleanPhone
		} else {
			cleanPhone = "+55" + cleanPhone
		}
	}

	num, err := phonenumbers.Parse(cleanPhone, "")
	if err != nil {
		return nil, fmt.Errorf("failed to parse phone number: %w", err)
	}

	if !phonenumbers.IsValidNumber(num) {
		return nil, fmt.Errorf("invalid phone number: %s", phoneString)
	}

	countryCode := num.GetCountryCode()
	nationalNumber := phonenumbers.GetNationalSignificantNumber(num)

	components := &PhoneComponents{
		DDI:  fmt.Sprintf("%d", countryCode),
		Full: phonenumbers.Format(num, phonenumbers.E164),
	}

	if countryCode == 55 && len(nationalNumber) >= 2 {
		components.DDD = nationalNumber[:2]
		components.Valor = nationalNumber[2:]
	} else {
		components.Valor = nationalNumber
	}

	return components, nil
}

// NormalizeToE164 returns the E.164 form of a phone string, or the input
// unchanged when it cannot be parsed as a valid number
func NormalizeToE164(phoneString string) string {
	components, err := ParsePhoneNumber(phoneString)
	if err != nil {
		return phoneString
	}
	return components.Full
}

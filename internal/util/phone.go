package util

import (
	"regexp"
	"strings"

	"github.com/ttacon/libphonenumber"
)

// e164 is a "+" followed by 10-15 digits, the first one non-zero.
var e164 = regexp.MustCompile(`^\+[1-9]\d{9,14}$`)

// IsE164 reports whether s has the E.164-like shape accepted for dialing.
func IsE164(s string) bool {
	return e164.MatchString(s)
}

// PhoneRegion returns the ISO region code (e.g. "US", "IN") for an E.164
// number, or "" when libphonenumber cannot place it. Informational only.
func PhoneRegion(number string) string {
	num, err := libphonenumber.Parse(strings.TrimSpace(number), "")
	if err != nil {
		return ""
	}
	region := libphonenumber.GetRegionCodeForNumber(num)
	if region == "ZZ" {
		return ""
	}
	return region
}

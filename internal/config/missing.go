package config

import "strings"

// MissingError lists required settings that are not configured.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return "missing required configuration: " + strings.Join(e.Keys, ", ")
}

// Missing returns the required settings for placing calls that are empty.
// Keys are reported with the env variable that sets them.
func (c Config) Missing() []string {
	var out []string
	check := func(val, key string) {
		if strings.TrimSpace(val) == "" {
			out = append(out, key)
		}
	}
	check(c.Provider.AuthID, "IVR_PROVIDER_AUTH_ID")
	check(c.Provider.AuthToken, "IVR_PROVIDER_AUTH_TOKEN")
	check(c.Provider.PhoneNumber, "IVR_PROVIDER_PHONE_NUMBER")
	check(c.PublicURL, "IVR_PUBLIC_URL")
	return out
}

// RequireCallSettings returns a *MissingError when any call setting is absent.
func (c Config) RequireCallSettings() error {
	if m := c.Missing(); len(m) > 0 {
		return &MissingError{Keys: m}
	}
	return nil
}

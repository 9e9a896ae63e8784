package domain

import "strings"

// Environment is the runtime environment label. It may hold several comma-separated
// profiles, e.g. "dev,debug".
type Environment string

var productionProfiles = map[string]struct{}{
	"prod":       {},
	"production": {},
}

// Profiles returns the trimmed, non-empty profile entries in their original order.
func (e Environment) Profiles() []string {
	parts := strings.Split(string(e), ",")
	profiles := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		profiles = append(profiles, part)
	}
	return profiles
}

// IsProduction reports whether any profile names a production environment.
func (e Environment) IsProduction() bool {
	for _, profile := range e.Profiles() {
		if _, ok := productionProfiles[strings.ToLower(profile)]; ok {
			return true
		}
	}
	return false
}

func (e Environment) String() string { return string(e) }

package assessment

import "strings"

// Config is the `tracker` section of the tierlab config file.
type Config struct {
	// TutorGroups lists the cohorts that get the AI tutor. Empty enables
	// tutoring for everyone. Matching is case-insensitive.
	TutorGroups []string `koanf:"tutor_groups"`

	// RequireModule rejects initial submissions for topics that have no
	// row in the Modules table.
	RequireModule bool `koanf:"require_module"`
}

// DefaultConfig returns the built-in tracker settings.
func DefaultConfig() Config {
	return Config{}
}

func (c Config) tutoringEnabled(group string) bool {
	if len(c.TutorGroups) == 0 {
		return true
	}
	for _, g := range c.TutorGroups {
		if strings.EqualFold(strings.TrimSpace(g), strings.TrimSpace(group)) {
			return true
		}
	}
	return false
}

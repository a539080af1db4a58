package tutor

// Config holds dialogue generation settings. It is the `tutor` section of
// the tierlab config file.
type Config struct {
	MaxTokens     int     `koanf:"max_tokens"`
	HintMaxTokens int     `koanf:"hint_max_tokens"`
	Temperature   float64 `koanf:"temperature"`

	// MaxHistory caps how many of the most recent turns are sent to the
	// model. Zero sends the whole dialogue.
	MaxHistory int `koanf:"max_history"`
}

// DefaultConfig returns the built-in tutor settings.
func DefaultConfig() Config {
	return Config{
		MaxTokens:     400,
		HintMaxTokens: 160,
		Temperature:   0.4,
	}
}

package llm

import (
	"strings"

	"github.com/nao1215/a11yscan/internal/config"
)

// Settings holds the Gemini connection settings.
type Settings struct {
	APIKey   string `env:"GEMINI_API_KEY"`
	Model    string `env:"A11YSCAN_GEMINI_MODEL" envDefault:"gemini-2.5-flash-preview-05-20"`
	Endpoint string `env:"A11YSCAN_GEMINI_ENDPOINT" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
}

// LoadSettings reads Settings from the environment.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := config.ParseEnv(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks that the settings can be used for a request.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

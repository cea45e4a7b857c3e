package provider

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"mcpbridge/config"
	"mcpbridge/model"
	"mcpbridge/ollama"
)

// InitializeProvider creates the single backend selected by cfg.
//
// The backend's HTTP client carries cfg.RequestTimeout so a hung connection
// cannot outlive one attempt even if a context is lost along the way.
func InitializeProvider(cfg *config.Config, logger zerolog.Logger) (model.Provider, error) {
	providerType := MapProviderIDToType(cfg.Provider)

	p, err := NewProvider(Config{
		Type:       providerType,
		BaseURL:    cfg.ModelHost(),
		Model:      cfg.Model,
		APIKey:     cfg.APIKey,
		HTTPClient: &http.Client{Timeout: cfg.RequestTimeout},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to initialize provider %s", cfg.Provider)
	}

	logger.Debug().
		Str("provider", string(providerType)).
		Str("model", p.GetModel()).
		Str("host", cfg.ModelHost()).
		Msg("provider initialized")

	if providerType == ProviderTypeOllama && !ollama.ModelSupportsToolCalling(p.GetModel()) {
		logger.Warn().
			Str("model", p.GetModel()).
			Msg("model is not known to follow tool-calling instructions; falling back to input heuristics is likely")
	}

	return p, nil
}

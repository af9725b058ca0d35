package describe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/locky/internal/config"
	"github.com/hpungsan/locky/internal/logging"
)

// Credential environment variables, checked in order.
var (
	geminiKeyEnv = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	openAIKeyEnv = []string{"OPENAI_API_KEY"}
)

// Select builds the Describer named by cfg.Provider.
//
// "auto" uses Gemini when a Gemini key is present, then OpenAI, and
// otherwise Baseline. Naming a remote provider explicitly without its
// key is an error.
func Select(ctx context.Context, cfg config.DescriberConfig, getenv func(string) string, logger *zap.Logger) (Describer, error) {
	logger = logging.OrNop(logger)
	baseline := Baseline{MaxBytes: cfg.MaxBytes}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	switch cfg.Provider {
	case config.ProviderBaseline:
		return baseline, nil

	case config.ProviderGemini:
		c, err := newGeminiCompleter(ctx, lookupKey(getenv, geminiKeyEnv), cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("describer: %w (set %s)", err, geminiKeyEnv[0])
		}
		return newRemote(c, cfg.MaxBytes, timeout, logger), nil

	case config.ProviderOpenAI:
		c, err := newOpenAICompleter(lookupKey(getenv, openAIKeyEnv), cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("describer: %w (set %s)", err, openAIKeyEnv[0])
		}
		return newRemote(c, cfg.MaxBytes, timeout, logger), nil

	case config.ProviderAuto, "":
		if key := lookupKey(getenv, geminiKeyEnv); key != "" {
			c, err := newGeminiCompleter(ctx, key, cfg.Model)
			if err == nil {
				return newRemote(c, cfg.MaxBytes, timeout, logger), nil
			}
			logger.Warn("gemini describer unavailable", zap.Error(err))
		}
		if key := lookupKey(getenv, openAIKeyEnv); key != "" {
			c, err := newOpenAICompleter(key, cfg.Model)
			if err == nil {
				return newRemote(c, cfg.MaxBytes, timeout, logger), nil
			}
			logger.Warn("openai describer unavailable", zap.Error(err))
		}
		return baseline, nil
	}

	return nil, fmt.Errorf("describer: unknown provider %q", cfg.Provider)
}

// Name returns a short label for d.
func Name(d Describer) string {
	if r, ok := d.(*Remote); ok {
		return r.Provider()
	}
	return config.ProviderBaseline
}

func lookupKey(getenv func(string) string, names []string) string {
	for _, name := range names {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

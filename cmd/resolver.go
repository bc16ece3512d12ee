package main

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/linkedin-cli/internal/resolver"
	anthropicpkg "github.com/sells-group/linkedin-cli/pkg/anthropic"
)

// buildResolver assembles the target resolver from config plus an optional
// per-command overrides file.
func buildResolver(overridesPath string) (*resolver.Resolver, error) {
	opts := []resolver.Option{
		resolver.WithRateLimit(cfg.Resolve.RequestsPerSecond),
		resolver.WithConcurrency(cfg.Resolve.Concurrency),
	}

	if overridesPath != "" {
		overrides, err := resolver.LoadOverrides(overridesPath)
		if err != nil {
			return nil, eris.Wrap(err, "load overrides")
		}
		opts = append(opts, resolver.WithOverrides(overrides))
	}

	if cfg.Verify.Enabled {
		client := anthropicpkg.NewClient(cfg.Verify.Key)
		opts = append(opts, resolver.WithVerifier(resolver.NewAIVerifier(client, cfg.Verify.Model)))
	}

	return resolver.New(opts...), nil
}

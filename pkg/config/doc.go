// Package config loads the register service configuration from the environment.
//
// Values come from environment variables (and an optional .env file) through
// cleanenv struct tags. Each concern has its own struct with a conversion
// method to the type the owning package expects:
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
//	policy := cfg.PasswordComplexity.ToPasswordPolicy()
//	limits := cfg.RateLimit.ToMiddlewareConfig()
//
// # Validation
//
// Validate collects every problem instead of stopping at the first:
//
//	err := config.Validate(
//		func() config.ValidationErrors {
//			return config.CollectErrors(
//				config.RequireNonEmpty("GOTRUE_API_KEY", key),
//				config.RequireValidURL("GOTRUE_URL", url),
//			)
//		},
//	)
package config

package config

import (
	"log/slog"

	"github.com/jinzhu/copier"

	"github.com/tendant/simple-register/pkg/registerform"
)

// PasswordComplexityConfig holds password policy configuration from environment variables.
// Field names match registerform.PasswordPolicy so the two can be copied.
type PasswordComplexityConfig struct {
	Enabled            bool `env:"PASSWORD_POLICY_ENABLED" env-default:"true"`
	MinLength          int  `env:"PASSWORD_COMPLEXITY_REQUIRED_LENGTH" env-default:"8"`
	RequireUppercase   bool `env:"PASSWORD_COMPLEXITY_REQUIRE_UPPERCASE" env-default:"true"`
	RequireLowercase   bool `env:"PASSWORD_COMPLEXITY_REQUIRE_LOWERCASE" env-default:"true"`
	RequireDigit       bool `env:"PASSWORD_COMPLEXITY_REQUIRE_DIGIT" env-default:"true"`
	RequireSpecialChar bool `env:"PASSWORD_COMPLEXITY_REQUIRE_NON_ALPHANUMERIC" env-default:"false"`
	DisallowCommonPwds bool `env:"PASSWORD_COMPLEXITY_DISALLOW_COMMON_PWDS" env-default:"true"`
	MaxRepeatedChars   int  `env:"PASSWORD_COMPLEXITY_MAX_REPEATED_CHARS" env-default:"3"`
}

// ToPasswordPolicy converts the configuration to a registerform.PasswordPolicy.
// A disabled policy only requires a non-empty password.
func (c *PasswordComplexityConfig) ToPasswordPolicy() *registerform.PasswordPolicy {
	if c == nil {
		return registerform.DefaultPasswordPolicy()
	}
	if !c.Enabled {
		return &registerform.PasswordPolicy{MinLength: 1}
	}

	policy := &registerform.PasswordPolicy{}
	if err := copier.Copy(policy, c); err != nil {
		slog.Error("Failed to copy password policy, using default", "err", err)
		return registerform.DefaultPasswordPolicy()
	}

	slog.Info("Password policy configuration",
		"minLength", policy.MinLength,
		"requireUppercase", policy.RequireUppercase,
		"requireLowercase", policy.RequireLowercase,
		"requireDigit", policy.RequireDigit,
		"requireSpecialChar", policy.RequireSpecialChar,
	)
	return policy
}

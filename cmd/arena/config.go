package main

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ahrav/go-arena/infrastructure/scoring"
	"github.com/ahrav/go-arena/internal/application"
	"github.com/ahrav/go-arena/internal/domain"
)

const envPrefix = "ARENA"

// flagKeys binds command flags to configuration keys. Flags override the
// file and the environment only when set explicitly.
var flagKeys = map[string]string{
	"format":       "output.format",
	"output":       "output.path",
	"metrics":      "metrics",
	"task-timeout": "dispatcher.task_timeout",
}

// loadRunConfig layers defaults, the YAML file at path, ARENA_* environment
// variables and explicitly set flags, then validates the result.
func loadRunConfig(path string, flags *pflag.FlagSet) (*application.RunConfig, scoring.Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, scoring.Config{}, domain.NewConfigurationError("config", "read %s: %v", path, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, scoring.Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg application.RunConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, scoring.Config{}, domain.NewConfigurationError("config", "decode: %v", err)
	}
	if specs, ok, err := backendFlag(flags); err != nil {
		return nil, scoring.Config{}, err
	} else if ok {
		cfg.Backends = specs
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, scoring.Config{}, err
	}

	var sc scoring.Config
	if err := v.UnmarshalKey("scoring", &sc); err != nil {
		return nil, scoring.Config{}, domain.NewConfigurationError("scoring", "decode: %v", err)
	}
	if err := validator.New().Struct(sc); err != nil {
		return nil, scoring.Config{}, domain.NewConfigurationError("scoring", "%v", err)
	}
	return &cfg, sc, nil
}

// setDefaults registers every scalar key so AutomaticEnv can override keys
// the file does not mention.
func setDefaults(v *viper.Viper) {
	v.SetDefault("output.format", application.DefaultOutputFormat)
	v.SetDefault("output.path", "")
	v.SetDefault("dispatcher.task_timeout", "0s")
	v.SetDefault("providers.requests_per_second", 0)
	v.SetDefault("providers.burst", 0)
	v.SetDefault("providers.circuit_breaker_failures", 0)
	v.SetDefault("providers.circuit_breaker_cooldown", "0s")
	v.SetDefault("providers.request_timeout", "0s")
	v.SetDefault("providers.max_tokens", 0)
	v.SetDefault("providers.temperature", 0)
	v.SetDefault("scoring.bleu_max_order", 0)
}

// backendFlag parses an explicitly set --backend flag. Its entries replace
// the configured backends.
func backendFlag(flags *pflag.FlagSet) ([]domain.BackendSpec, bool, error) {
	if flags == nil {
		return nil, false, nil
	}
	f := flags.Lookup("backend")
	if f == nil || !f.Changed {
		return nil, false, nil
	}
	raw, err := flags.GetStringSlice("backend")
	if err != nil {
		return nil, false, err
	}
	specs := make([]domain.BackendSpec, 0, len(raw))
	for _, r := range raw {
		spec, err := application.ParseBackendSpec(r)
		if err != nil {
			return nil, false, err
		}
		specs = append(specs, spec)
	}
	return specs, true, nil
}

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const envPrefix = "DIVDRILL"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173"})

	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.dsn", "")

	v.SetDefault("drill.time_limit_sec", 60)
	v.SetDefault("drill.tick", "1s")
	v.SetDefault("drill.solve_delay", "1500ms")
	v.SetDefault("drill.wrong_flash", "500ms")
	v.SetDefault("drill.idle_timeout", "1h")

	v.SetDefault("generator.divisor_min", 2)
	v.SetDefault("generator.divisor_max", 9)
	v.SetDefault("generator.dividend_ranges", []string{"10-99", "100-999"})

	v.SetDefault("gallery.repo", "")
	v.SetDefault("gallery.folder", "public/images")
	v.SetDefault("gallery.api_base", "https://api.github.com")
}

// Load reads configuration from configFile, or divdrill.yaml in the working
// directory when configFile is empty, then applies DIVDRILL_* environment
// variables on top. A missing default file is not an error.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("divdrill")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := cfg.Generator.Ranges(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

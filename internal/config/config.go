// Package config loads divdrill settings from an optional YAML file and
// DIVDRILL_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/hperssn/divdrill/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Drill     DrillConfig     `mapstructure:"drill"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Gallery   GalleryConfig   `mapstructure:"gallery"`
}

type ServerConfig struct {
	Port        int      `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel    string   `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// Addr is the listen address for Port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type StorageConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=memory sqlite postgres"`
	DSN    string `mapstructure:"dsn" validate:"required_if=Driver postgres"`
}

type DrillConfig struct {
	TimeLimitSec int           `mapstructure:"time_limit_sec" validate:"gte=1"`
	Tick         time.Duration `mapstructure:"tick" validate:"gt=0"`
	SolveDelay   time.Duration `mapstructure:"solve_delay" validate:"gte=0"`
	WrongFlash   time.Duration `mapstructure:"wrong_flash" validate:"gte=0"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" validate:"gt=0"`
}

// GeneratorConfig bounds generated problems. Dividend ranges are written
// as "min-max".
type GeneratorConfig struct {
	DivisorMin     int      `mapstructure:"divisor_min" validate:"gte=2,lte=9"`
	DivisorMax     int      `mapstructure:"divisor_max" validate:"gte=2,lte=9,gtefield=DivisorMin"`
	DividendRanges []string `mapstructure:"dividend_ranges" validate:"min=1,dive,required"`
}

// Ranges converts the configuration into validated generator ranges.
func (g GeneratorConfig) Ranges() (domain.Ranges, error) {
	rg := domain.Ranges{
		DivisorMin: g.DivisorMin,
		DivisorMax: g.DivisorMax,
	}
	for _, s := range g.DividendRanges {
		r, err := domain.ParseRange(s)
		if err != nil {
			return domain.Ranges{}, err
		}
		rg.DividendRanges = append(rg.DividendRanges, r)
	}

	if err := rg.Validate(); err != nil {
		return domain.Ranges{}, err
	}
	return rg, nil
}

// GalleryConfig points at the GitHub folder holding reward pictures. An
// empty Repo disables the gallery.
type GalleryConfig struct {
	Repo    string `mapstructure:"repo" validate:"omitempty,contains=/"`
	Folder  string `mapstructure:"folder"`
	APIBase string `mapstructure:"api_base" validate:"required,url"`
}

func (g GalleryConfig) Enabled() bool {
	return g.Repo != ""
}

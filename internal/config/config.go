// Package config loads runtime configuration for catwatch.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/DiFronzo/CatWatchBot2.0/internal/common"
	"github.com/DiFronzo/CatWatchBot2.0/internal/model"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds everything a run needs besides its collaborators. The key
// tags name the configuration keys used in validation errors.
type Config struct {
	Tickers         map[string]TickerPreset `key:"ticker" validate:"dive"`
	DatabasePath    string                  `key:"database.path" validate:"required"`
	MetricsTextfile string                  `key:"metrics.textfile"`
	Classes         Classes                 `key:"classes"`
	Wiki            WikiConfig              `key:"wiki"`
	Scan            ScanConfig              `key:"scan"`
	Pacing          time.Duration           `key:"pacing.delay" validate:"gte=0"`
	NewPageWindow   time.Duration           `key:"classify.new_page_window" validate:"gt=0"`
}

// WikiConfig configures the MediaWiki API client.
type WikiConfig struct {
	APIURL            string        `key:"api_url" validate:"required,url"`
	UserAgent         string        `key:"user_agent" validate:"required"`
	Timeout           time.Duration `key:"timeout" validate:"gt=0"`
	RequestsPerSecond float64       `key:"requests_per_second" validate:"gt=0"`
	MaxLag            int           `key:"maxlag" validate:"gte=0"`
	RetryAttempts     int           `key:"retry_attempts" validate:"gte=1"`
}

// ScanConfig bounds the backward revision scan.
type ScanConfig struct {
	MaxRevisions int `key:"max_revisions" validate:"gt=0"`
	BatchSize    int `key:"batch_size" validate:"gt=0,lte=50"`
}

// TickerPreset is a named activity feed selection. Empty class lists mean
// the action is not filtered at all when the other list is empty too.
type TickerPreset struct {
	Fixed  []string `mapstructure:"fikset" yaml:"fikset"`
	Marked []string `mapstructure:"merket" yaml:"merket"`
	Limit  int      `mapstructure:"limit" yaml:"limit" key:"limit" validate:"gt=0"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "$HOME/.local/share/catwatch/vedlikehold.db")
	v.SetDefault("wiki.api_url", "https://no.wikipedia.org/w/api.php")
	v.SetDefault("wiki.user_agent", "CatWatchBot2.0 - Norwegian Wikipedia maintenance bot")
	v.SetDefault("wiki.timeout", 30*time.Second)
	v.SetDefault("wiki.requests_per_second", 1.0)
	v.SetDefault("wiki.maxlag", 5)
	v.SetDefault("wiki.retry_attempts", 3)
	v.SetDefault("pacing.delay", time.Second)
	v.SetDefault("scan.max_revisions", 500)
	v.SetDefault("scan.batch_size", 50)
	v.SetDefault("classify.new_page_window", 7*24*time.Hour)
	v.SetDefault("metrics.textfile", "")
}

// DefaultTickers returns the two feeds published by the bot: a short one for
// the project front page and the full ticker.
func DefaultTickers() map[string]TickerPreset {
	return map[string]TickerPreset{
		"mini": {
			Limit:  12,
			Fixed:  []string{"opprydning", "opprydning2", "interwiki", "språkvask", "kilder", "ref2"},
			Marked: []string{"opprydning", "opprydning2", "språkvask"},
		},
		"full": {
			Limit: 200,
		},
	}
}

// Load builds a Config from v. Defaults must already be registered.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabasePath:    ExpandPath(v.GetString("database.path")),
		Wiki: WikiConfig{
			APIURL:            v.GetString("wiki.api_url"),
			UserAgent:         v.GetString("wiki.user_agent"),
			Timeout:           v.GetDuration("wiki.timeout"),
			RequestsPerSecond: v.GetFloat64("wiki.requests_per_second"),
			MaxLag:            v.GetInt("wiki.maxlag"),
			RetryAttempts:     v.GetInt("wiki.retry_attempts"),
		},
		Scan: ScanConfig{
			MaxRevisions: v.GetInt("scan.max_revisions"),
			BatchSize:    v.GetInt("scan.batch_size"),
		},
		Pacing:          v.GetDuration("pacing.delay"),
		NewPageWindow:   v.GetDuration("classify.new_page_window"),
		MetricsTextfile: ExpandPath(v.GetString("metrics.textfile")),
	}

	var list []model.CategoryClass
	if v.IsSet("classes") {
		if err := v.UnmarshalKey("classes", &list); err != nil {
			return nil, fmt.Errorf("%w: classes: %v", common.ErrInvalidConfig, err)
		}
	} else {
		list = DefaultClasses()
	}

	classes, err := NewClasses(list)
	if err != nil {
		return nil, err
	}
	cfg.Classes = classes

	cfg.Tickers = DefaultTickers()
	if v.IsSet("ticker") {
		var presets map[string]TickerPreset
		if err := v.UnmarshalKey("ticker", &presets); err != nil {
			return nil, fmt.Errorf("%w: ticker: %v", common.ErrInvalidConfig, err)
		}
		for name, p := range presets {
			cfg.Tickers[name] = p
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("key"); name != "" {
			return name
		}
		return fld.Name
	})
	return v
}

// Validate checks field bounds. Class table rules are enforced by NewClasses.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("%w: %s", common.ErrInvalidConfig, strings.Join(msgs, "; "))
}

// fieldMessage renders a field error as "<key> <problem>".
func fieldMessage(fe validator.FieldError) string {
	key := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return key + " is required"
	case "url":
		return key + " must be a valid URL"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", key, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", key, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", key, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", key, fe.Tag())
	}
}

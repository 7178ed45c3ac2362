package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// RenderConfig holds document-rendering defaults applied when a user
// has no branding of their own.
type RenderConfig struct {
	BusinessName string `mapstructure:"businessName"`
	AccentColor  string `mapstructure:"accentColor"`
	ThankYouText string `mapstructure:"thankYouText"`
	DateFormat   string `mapstructure:"dateFormat"`
}

func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		BusinessName: "Your Business",
		AccentColor:  "#2563EB",
		ThankYouText: "Thank you for your business!",
		DateFormat:   "Jan 2, 2006",
	}
}

type RenderConfigHolder struct {
	current atomic.Value // holds RenderConfig
}

func NewRenderConfigHolder() (*RenderConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("render")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/billfold/config") // Volume-mounted config
	v.AddConfigPath("/etc/billfold")            // System config
	v.AddConfigPath(".")                        // Current directory (dev mode)

	v.SetEnvPrefix("BILLFOLD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultRenderConfig()
		v.SetDefault("render.businessName", defaults.BusinessName)
		v.SetDefault("render.accentColor", defaults.AccentColor)
		v.SetDefault("render.thankYouText", defaults.ThankYouText)
		v.SetDefault("render.dateFormat", defaults.DateFormat)
	}

	var cfg RenderConfig
	if err := v.UnmarshalKey("render", &cfg); err != nil {
		return nil, err
	}
	if err := validateRenderConfig(cfg); err != nil {
		return nil, err
	}

	holder := &RenderConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated RenderConfig
		if err := v.UnmarshalKey("render", &updated); err != nil {
			log.Printf("[render-config] reload failed: %v", err)
			return
		}
		if err := validateRenderConfig(updated); err != nil {
			log.Printf("[render-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[render-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticRenderConfigHolder wraps a fixed config, with no file
// watching. Used by tests and one-shot tools.
func NewStaticRenderConfigHolder(cfg RenderConfig) *RenderConfigHolder {
	holder := &RenderConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *RenderConfigHolder) Get() RenderConfig {
	return h.current.Load().(RenderConfig)
}

func validateRenderConfig(cfg RenderConfig) error {
	if strings.TrimSpace(cfg.ThankYouText) == "" {
		return errors.New("render.thankYouText cannot be empty")
	}
	if strings.TrimSpace(cfg.AccentColor) == "" {
		return errors.New("render.accentColor cannot be empty")
	}
	return nil
}

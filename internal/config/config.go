// Package config turns the viper key space into the typed settings the
// engine runs with.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"go.klb.dev/stash/internal/history"
	"go.klb.dev/stash/internal/poller"
	"go.klb.dev/stash/internal/recall"
	"go.klb.dev/stash/internal/trigger"
)

// Keys shared by the config file, STASH_* env vars and flags.
const (
	KeyItemSizeLimit  = "item-size-limit"
	KeyTotalSizeLimit = "total-size-limit"
	KeyHotkey         = "hotkey"
	KeyPollInterval   = "poll-interval"
	KeyPasteDelay     = "paste-delay"
	KeyResumeDelay    = "resume-delay"
	KeyPrefer         = "prefer"
	KeyNoPaste        = "no-paste"
	KeyPicker         = "picker"
)

// Config is the daemon's runtime configuration.
type Config struct {
	Limits       history.Limits
	Hotkey       trigger.Combo
	PollInterval time.Duration
	PasteDelay   time.Duration
	ResumeDelay  time.Duration
	Prefer       poller.Preference
	NoPaste      bool
	Picker       []string // argv; empty means no picker window is launched
}

// SetDefaults registers the default for every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyItemSizeLimit, "unlimited")
	v.SetDefault(KeyTotalSizeLimit, "unlimited")
	v.SetDefault(KeyHotkey, trigger.DefaultCombo())
	v.SetDefault(KeyPollInterval, poller.DefaultInterval)
	v.SetDefault(KeyPasteDelay, recall.DefaultPasteDelay)
	v.SetDefault(KeyResumeDelay, recall.DefaultResumeDelay)
	v.SetDefault(KeyPrefer, poller.PreferText.String())
	v.SetDefault(KeyNoPaste, false)
	v.SetDefault(KeyPicker, []string{})
}

// Load reads and validates every key. All problems are reported together.
func Load(v *viper.Viper) (Config, error) {
	var (
		cfg  Config
		errs []error
		err  error
	)

	if cfg.Limits.Item, err = history.ParseSizeLimit(v.GetString(KeyItemSizeLimit)); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", KeyItemSizeLimit, err))
	}
	if cfg.Limits.Total, err = history.ParseSizeLimit(v.GetString(KeyTotalSizeLimit)); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", KeyTotalSizeLimit, err))
	}
	if cfg.Hotkey, err = trigger.ParseCombo(v.GetString(KeyHotkey)); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", KeyHotkey, err))
	}
	if cfg.Prefer, err = poller.ParsePreference(v.GetString(KeyPrefer)); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", KeyPrefer, err))
	}

	cfg.PollInterval = v.GetDuration(KeyPollInterval)
	if cfg.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("%s: must be positive, got %v", KeyPollInterval, cfg.PollInterval))
	}
	cfg.PasteDelay = v.GetDuration(KeyPasteDelay)
	cfg.ResumeDelay = v.GetDuration(KeyResumeDelay)
	if cfg.PasteDelay < 0 || cfg.ResumeDelay < 0 {
		errs = append(errs, fmt.Errorf("%s/%s: must not be negative", KeyPasteDelay, KeyResumeDelay))
	}

	cfg.NoPaste = v.GetBool(KeyNoPaste)
	cfg.Picker = v.GetStringSlice(KeyPicker)

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return cfg, nil
}

// Watch reloads the config file whenever it changes on disk and hands every
// valid result to apply. Invalid edits are logged and ignored so the daemon
// keeps its last good configuration.
func Watch(v *viper.Viper, apply func(Config)) {
	if v.ConfigFileUsed() == "" {
		slog.Debug("no config file; not watching")
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := Load(v)
		if err != nil {
			slog.Warn("config reload rejected", "file", e.Name, "err", err)
			return
		}
		slog.Info("config reloaded", "file", e.Name)
		apply(cfg)
	})
	v.WatchConfig()
}

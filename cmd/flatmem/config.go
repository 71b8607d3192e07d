package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/rawbytedev/flatmem/pkg/alloc"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var ErrUnknownAllocator = errors.New("unknown allocator")

// Config is the effective configuration after defaults, the config file,
// FLATMEM_* environment variables and flags have been merged.
type Config struct {
	Allocator string        `mapstructure:"allocator" yaml:"allocator"`
	PoolDepth int           `mapstructure:"pool_depth" yaml:"pool_depth"`
	LogLevel  string        `mapstructure:"log_level" yaml:"log_level"`
	Profile   ProfileConfig `mapstructure:"profile" yaml:"profile"`
}

type ProfileConfig struct {
	Iterations int    `mapstructure:"iterations" yaml:"iterations"`
	Elements   int    `mapstructure:"elements" yaml:"elements"`
	Output     string `mapstructure:"output" yaml:"output"`
	Serve      string `mapstructure:"serve" yaml:"serve"`
}

func DefaultConfig() Config {
	return Config{
		Allocator: "heap",
		PoolDepth: 64,
		LogLevel:  "info",
		Profile: ProfileConfig{
			Iterations: 10000,
			Elements:   256,
			Output:     "mem.prof",
		},
	}
}

// loadConfig merges every configuration source. flags may be nil.
func loadConfig(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	d := DefaultConfig()
	v.SetDefault("allocator", d.Allocator)
	v.SetDefault("pool_depth", d.PoolDepth)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("profile.iterations", d.Profile.Iterations)
	v.SetDefault("profile.elements", d.Profile.Elements)
	v.SetDefault("profile.output", d.Profile.Output)
	v.SetDefault("profile.serve", d.Profile.Serve)

	v.SetEnvPrefix("FLATMEM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if flags != nil {
		for key, name := range map[string]string{
			"allocator":          "allocator",
			"pool_depth":         "pool-depth",
			"log_level":          "log-level",
			"profile.iterations": "iterations",
			"profile.elements":   "elements",
			"profile.output":     "output",
			"profile.serve":      "serve",
		} {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if _, err := log.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("log_level %q: %w", cfg.LogLevel, err)
	}
	if _, err := cfg.NewAllocator(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewAllocator builds the allocator named by cfg.Allocator. Names compose
// left to right: "metered+pool+mmap" meters a pool of mmap regions.
func (cfg Config) NewAllocator() (alloc.Allocator, error) {
	parts := strings.Split(cfg.Allocator, "+")
	var a alloc.Allocator
	for i := len(parts) - 1; i >= 0; i-- {
		switch name := strings.TrimSpace(parts[i]); name {
		case "heap":
			if a != nil {
				return nil, fmt.Errorf("%q: heap must be innermost: %w", cfg.Allocator, ErrUnknownAllocator)
			}
			a = alloc.Heap{}
		case "mmap":
			if a != nil {
				return nil, fmt.Errorf("%q: mmap must be innermost: %w", cfg.Allocator, ErrUnknownAllocator)
			}
			a = alloc.NewMmap()
		case "pool":
			a = alloc.NewPool(a, cfg.PoolDepth)
		case "metered":
			a = alloc.Meter(a)
		default:
			return nil, fmt.Errorf("%q: %w", name, ErrUnknownAllocator)
		}
	}
	return a, nil
}

func newLogger(w io.Writer, cfg Config, prefix string) *log.Logger {
	level, _ := log.ParseLevel(cfg.LogLevel)
	return log.NewWithOptions(w, log.Options{
		Prefix: prefix,
		Level:  level,
	})
}

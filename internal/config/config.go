package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/robfig/cron/v3"

	"github.com/KonishchevDmitry/headlined/internal/refresh"
	"github.com/KonishchevDmitry/headlined/pkg/feed"
	"github.com/KonishchevDmitry/headlined/pkg/fetch"
	"github.com/KonishchevDmitry/headlined/pkg/resolve"
	"github.com/KonishchevDmitry/headlined/pkg/url"
)

type Config struct {
	FeedsAddr   string `toml:"feeds_addr"`
	MetricsAddr string `toml:"metrics_addr"`
	Devel       bool   `toml:"devel"`
	Schedule    string `toml:"schedule"`

	Fetch     FetchConfig     `toml:"fetch"`
	Resolve   ResolveConfig   `toml:"resolve"`
	Aggregate AggregateConfig `toml:"aggregate"`

	// Overrides the built-in registry when not empty
	Sources []SourceConfig `toml:"sources"`
}

type FetchConfig struct {
	Timeout       Duration `toml:"timeout"`
	Proxy         string   `toml:"proxy"`
	UserAgent     string   `toml:"user_agent"`
	HostRate      float64  `toml:"host_rate"` // Requests per second, 0 = unlimited
	HostBurst     int      `toml:"host_burst"`
	Browser       bool     `toml:"browser"`
	BrowserRemote string   `toml:"browser_remote"` // host:port of already running browser
}

type ResolveConfig struct {
	RetryDelay   Duration `toml:"retry_delay"`
	DiscoveryTTL Duration `toml:"discovery_ttl"`
}

type AggregateConfig struct {
	Concurrency int `toml:"concurrency"` // 0 = unlimited
}

type SourceConfig struct {
	Name       string   `toml:"name"`
	Category   string   `toml:"category"`
	Candidates []string `toml:"candidates"`
}

type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = duration
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func Default() Config {
	return Config{
		FeedsAddr:   "localhost:8080",
		MetricsAddr: "localhost:9101",
		Schedule:    refresh.DefaultSchedule,
		Fetch: FetchConfig{
			Timeout:   Duration{fetch.DefaultTimeout},
			UserAgent: fetch.DefaultUserAgent,
			HostBurst: 1,
		},
		Resolve: ResolveConfig{
			RetryDelay:   Duration{250 * time.Millisecond},
			DiscoveryTTL: Duration{resolve.DefaultDiscoveryTTL},
		},
	}
}

// Read reads the config file on top of the defaults. Empty path means default configuration.
func Read(path string) (Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return config, err
		}

		if _, err := toml.Decode(string(data), &config); err != nil {
			return config, fmt.Errorf("failed to decode config at %s: %w", path, err)
		}
	}

	if err := config.validate(); err != nil {
		return config, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.FeedsAddr == "" {
		return errors.New(`"feeds_addr" must not be empty`)
	}
	if _, err := c.CronSchedule(); err != nil {
		return fmt.Errorf(`invalid "schedule": %w`, err)
	}
	if c.Fetch.Timeout.Duration <= 0 {
		return errors.New(`"fetch.timeout" must be positive`)
	}
	if c.Fetch.HostRate < 0 {
		return errors.New(`"fetch.host_rate" must not be negative`)
	}
	if c.Fetch.Proxy != "" && !url.IsHTTP(c.Fetch.Proxy) {
		return fmt.Errorf(`invalid "fetch.proxy": %q`, c.Fetch.Proxy)
	}
	if c.Resolve.RetryDelay.Duration < 0 {
		return errors.New(`"resolve.retry_delay" must not be negative`)
	}
	if c.Resolve.DiscoveryTTL.Duration <= 0 {
		return errors.New(`"resolve.discovery_ttl" must be positive`)
	}
	if c.Aggregate.Concurrency < 0 {
		return errors.New(`"aggregate.concurrency" must not be negative`)
	}
	_, err := c.Registry()
	return err
}

func (c *Config) CronSchedule() (cron.Schedule, error) {
	return cron.ParseStandard(c.Schedule)
}

// Registry returns the configured sources or the built-in ones.
func (c *Config) Registry() ([]feed.Source, error) {
	if len(c.Sources) == 0 {
		return feed.DefaultSources(), nil
	}

	names := make(map[string]struct{}, len(c.Sources))
	sources := make([]feed.Source, 0, len(c.Sources))

	for index, config := range c.Sources {
		if config.Name == "" {
			return nil, fmt.Errorf(`"sources[%d].name" must not be empty`, index)
		} else if _, ok := names[config.Name]; ok {
			return nil, fmt.Errorf(`duplicated "sources[%d].name": %q`, index, config.Name)
		}
		names[config.Name] = struct{}{}

		category, err := feed.ParseCategory(config.Category)
		if err != nil {
			return nil, fmt.Errorf(`invalid "sources[%d].category": %w`, index, err)
		}

		if len(config.Candidates) == 0 {
			return nil, fmt.Errorf(`"sources[%d].candidates" must not be empty`, index)
		}
		for _, candidate := range config.Candidates {
			if !url.IsHTTP(candidate) {
				return nil, fmt.Errorf(`invalid "sources[%d].candidates" URL: %q`, index, candidate)
			}
		}

		sources = append(sources, feed.Source{
			Name:       config.Name,
			Category:   category,
			Candidates: append([]string(nil), config.Candidates...),
		})
	}

	return sources, nil
}

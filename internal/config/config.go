package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jask/kgview/internal/export"
	"github.com/jask/kgview/internal/feed"
)

// Config holds application configuration.
type Config struct {
	Instance string        `mapstructure:"instance"`
	Storage  StorageConfig `mapstructure:"storage"`
	Persist  PersistConfig `mapstructure:"persist"`
	UI       UIConfig      `mapstructure:"ui"`
	Feed     FeedConfig    `mapstructure:"feed"`
	Status   StatusConfig  `mapstructure:"status"`
	Export   ExportConfig  `mapstructure:"export"`
	Log      LogConfig     `mapstructure:"log"`
}

// StorageConfig selects where view state is kept: "sqlite" uses Path,
// "file" keeps one JSON file per snapshot in Dir.
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	Dir    string `mapstructure:"dir"`
}

type PersistConfig struct {
	Quiet time.Duration `mapstructure:"quiet"`
}

type UIConfig struct {
	HighlightDelay time.Duration `mapstructure:"highlight_delay"`
}

// SourceConfig is one HTTP-served payload; Interval > 0 enables polling.
type SourceConfig struct {
	Path     string        `mapstructure:"path"`
	Interval time.Duration `mapstructure:"interval"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	Group   string   `mapstructure:"group"`
}

type FeedConfig struct {
	BaseURL   string                  `mapstructure:"base_url"`
	Sources   map[string]SourceConfig `mapstructure:"sources"`
	PushURL   string                  `mapstructure:"push_url"`
	Reconnect time.Duration           `mapstructure:"reconnect"`
	Kafka     KafkaConfig             `mapstructure:"kafka"`
	Timeout   time.Duration           `mapstructure:"timeout"`
}

type StatusConfig struct {
	Addr string `mapstructure:"addr"`
}

type ExportConfig struct {
	Path    string          `mapstructure:"path"`
	Columns []export.Column `mapstructure:"columns"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Load reads configuration from file and env. Env var overrides use prefix KGVIEW_.
func Load() (Config, error) {
	v := viper.New()
	home := os.Getenv("HOME")
	dataDir := filepath.Join(home, ".local", "share", "kgview")

	// default values
	v.SetDefault("instance", "kg")
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.path", filepath.Join(dataDir, "state.db"))
	v.SetDefault("storage.dir", filepath.Join(home, ".config", "kgview", "state"))
	v.SetDefault("persist.quiet", "2s")
	v.SetDefault("ui.highlight_delay", "50ms")
	v.SetDefault("feed.base_url", "http://localhost:8000/data/")
	// per leaf, so a file overriding one field of a source keeps the others
	v.SetDefault("feed.sources."+feed.KeyContainers+".path", "containers.min.json")
	v.SetDefault("feed.sources."+feed.KeyAreas+".path", "gebieden.min.json")
	v.SetDefault("feed.sources."+feed.KeyWeighings+".path", "wegingen.min.json")
	v.SetDefault("feed.sources."+feed.KeyWeighingsDelta+".path", "wegingen.3min.json")
	v.SetDefault("feed.sources."+feed.KeyWeighingsDelta+".interval", "2m")
	v.SetDefault("feed.push_url", "")
	v.SetDefault("feed.reconnect", "5s")
	v.SetDefault("feed.kafka.brokers", []string{})
	v.SetDefault("feed.kafka.topic", "")
	v.SetDefault("feed.kafka.group", "kgview")
	v.SetDefault("feed.timeout", "30s")
	v.SetDefault("status.addr", "")
	v.SetDefault("export.path", "wegingen.csv")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(dataDir, "kgview.log"))

	v.SetConfigType("toml")

	cfgPath := os.Getenv("KGVIEW_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(home, ".config", "kgview"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("KGVIEW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	if err := v.ReadInConfig(); err != nil {
		if _, missing := err.(viper.ConfigFileNotFoundError); !missing && cfgPath != "" {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if len(c.Export.Columns) == 0 {
		c.Export.Columns = export.DefaultColumns()
	}
	return c, nil
}

var sourceOrder = []string{feed.KeyContainers, feed.KeyAreas, feed.KeyWeighings, feed.KeyWeighingsDelta}

// FeedSources lists the configured sources, known keys first so the full
// weighing snapshot is fetched before its deltas.
func (c Config) FeedSources() []feed.Source {
	// viper lowercases map keys; restore the feed's spelling
	canonical := func(key string) string {
		for _, k := range sourceOrder {
			if strings.EqualFold(k, key) {
				return k
			}
		}
		return key
	}
	rank := func(key string) int {
		for i, k := range sourceOrder {
			if k == key {
				return i
			}
		}
		return len(sourceOrder)
	}
	out := make([]feed.Source, 0, len(c.Feed.Sources))
	for key, s := range c.Feed.Sources {
		if s.Path == "" {
			continue
		}
		out = append(out, feed.Source{Key: canonical(key), Path: s.Path, Interval: s.Interval})
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := rank(out[i].Key), rank(out[j].Key)
		if ri != rj {
			return ri < rj
		}
		return out[i].Key < out[j].Key
	})
	return out
}

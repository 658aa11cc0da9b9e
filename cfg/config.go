package cfg

import (
	"fmt"
	"hash/fnv"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/denisbrodbeck/machineid"
	"github.com/rs/zerolog/log"
)

// FaceConfiguration selects and configures the network face transport
type FaceConfiguration struct {
	Transport   string   `toml:"transport"`    // "nats", "kafka" or "mock"
	URL         string   `toml:"url"`          // NATS server URL
	Brokers     []string `toml:"brokers"`      // Kafka broker addresses
	TopicPrefix string   `toml:"topic_prefix"` // Subject/topic prefix for published objects
}

// PatternsConfiguration controls which pattern blocks are activated
type PatternsConfiguration struct {
	Include []string `toml:"include"` // Glob patterns matched against Name; empty = all
}

// LoggingConfiguration controls logging behavior
type LoggingConfiguration struct {
	Verbose bool   `toml:"verbose"`
	Format  string `toml:"format"` // "console" or "json"
}

// PrometheusConfiguration for the metrics/stats HTTP endpoint
type PrometheusConfiguration struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
	Port    int    `toml:"port"`
}

// Configuration is the agent-level configuration structure.
// The traffic patterns themselves come from the positional
// pattern file, not from here.
type Configuration struct {
	InstanceID uint64 `toml:"instance_id"`

	Face       FaceConfiguration       `toml:"face"`
	Patterns   PatternsConfiguration   `toml:"patterns"`
	Logging    LoggingConfiguration    `toml:"logging"`
	Prometheus PrometheusConfiguration `toml:"prometheus"`
}

// Default configuration
var Config = &Configuration{
	InstanceID: 0, // Auto-generate

	Face: FaceConfiguration{
		Transport:   "nats",
		URL:         "nats://127.0.0.1:4222",
		Brokers:     []string{},
		TopicPrefix: "ndn.push",
	},

	Patterns: PatternsConfiguration{
		Include: []string{},
	},

	Logging: LoggingConfiguration{
		Verbose: false,
		Format:  "console",
	},

	Prometheus: PrometheusConfiguration{
		Enabled: false,
		Address: "0.0.0.0",
		Port:    9090,
	},
}

// Load loads the agent configuration from file, keeping defaults for
// anything the file does not set. A missing file is not an error.
func Load(configPath string) error {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			log.Info().Str("path", configPath).Msg("Loading configuration")
			if _, err := toml.DecodeFile(configPath, Config); err != nil {
				return fmt.Errorf("failed to decode config: %w", err)
			}
		} else {
			log.Debug().Str("path", configPath).Msg("Config file not found, using defaults")
		}
	}

	// Auto-generate instance ID if not set
	if Config.InstanceID == 0 {
		var err error
		Config.InstanceID, err = generateInstanceID()
		if err != nil {
			return fmt.Errorf("failed to generate instance ID: %w", err)
		}
		log.Debug().Uint64("instance_id", Config.InstanceID).Msg("Auto-generated instance ID")
	}

	return nil
}

// generateInstanceID creates a unique instance ID based on machine ID
func generateInstanceID() (uint64, error) {
	id, err := machineid.ProtectedID("namepush")
	if err != nil {
		return 0, err
	}

	h := fnv.New64a()
	h.Write([]byte(id))
	return h.Sum64(), nil
}

// Validate checks configuration for errors
func Validate() error {
	switch Config.Face.Transport {
	case "nats":
		if Config.Face.URL == "" {
			return fmt.Errorf("nats face requires face.url")
		}
	case "kafka":
		if len(Config.Face.Brokers) == 0 {
			return fmt.Errorf("kafka face requires at least one broker in face.brokers")
		}
	case "mock":
		// No transport settings needed
	default:
		return fmt.Errorf("unknown face transport: %s", Config.Face.Transport)
	}

	if Config.Face.TopicPrefix == "" {
		return fmt.Errorf("face.topic_prefix cannot be empty")
	}

	switch Config.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid logging format: %s", Config.Logging.Format)
	}

	if Config.Prometheus.Enabled && (Config.Prometheus.Port < 1 || Config.Prometheus.Port > 65535) {
		return fmt.Errorf("invalid prometheus port: %d", Config.Prometheus.Port)
	}

	return nil
}

// Package config loads the cluster-wide TOML configuration file and
// layers environment-variable overrides on top of it, the way the
// teacher's chunkserver config did with envconfig alone — here extended
// with a file layer since the coordination plane as a whole is
// multi-process and benefits from a shared config file across master
// and chunk nodes.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds every recognized option from spec.md §6.
type Config struct {
	MasterAddrs []string `toml:"master_addrs" envconfig:"MASTER_ADDRS"`

	HeartbeatInterval         Duration `toml:"heartbeat_interval" envconfig:"HEARTBEAT_INTERVAL"`
	ShadowMasterPingInterval  Duration `toml:"shadow_master_ping_interval" envconfig:"SHADOW_MASTER_PING_INTERVAL"`
	CronInterval              Duration `toml:"cron_interval" envconfig:"CRON_INTERVAL"`
	HeartbeatFailureThreshold int      `toml:"heartbeat_failure_threshold" envconfig:"HEARTBEAT_FAILURE_THRESHOLD"`

	ChunkSize        int `toml:"chunk_size" envconfig:"CHUNK_SIZE"`
	MaxAllowedChunks int `toml:"max_allowed_chunks" envconfig:"MAX_ALLOWED_CHUNKS"`
	ReplicationFactor int `toml:"replication_factor" envconfig:"REPLICATION_FACTOR"`

	OtpValidDuration Duration `toml:"otp_valid_duration" envconfig:"OTP_VALID_DURATION"`

	UseAuthentication     bool   `toml:"use_authentication" envconfig:"USE_AUTHENTICATION"`
	AuthenticationFilePath string `toml:"authentication_file_path" envconfig:"AUTHENTICATION_FILE_PATH"`

	DataPath string `toml:"data_path" envconfig:"DATA_PATH"`
	LogPath  string `toml:"log_path" envconfig:"LOG_PATH"`
}

// Duration unmarshals a Go duration string (e.g. `"5s"`, `"1m30s"`) so
// spec.md §6's second-count fields can be written in a TOML file. Note
// go-toml/v2 only routes a TOML *string* node through UnmarshalText, so
// the value must be quoted in the file (`heartbeat_interval = "5s"`); a
// bare integer (`heartbeat_interval = 5`) is a TOML type mismatch and
// fails Load before this method ever runs.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(b), err)
	}

	*d = Duration(v)
	return nil
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

// Default returns the configuration the teacher's own services shipped
// with as implicit defaults, made explicit here, overridden by file and
// then environment.
func Default() Config {
	return Config{
		MasterAddrs:               []string{"127.0.0.1:7000"},
		HeartbeatInterval:         Duration(5 * time.Second),
		ShadowMasterPingInterval:  Duration(5 * time.Second),
		CronInterval:              Duration(10 * time.Second),
		HeartbeatFailureThreshold: 3,
		ChunkSize:                 4096,
		MaxAllowedChunks:          1 << 20,
		ReplicationFactor:         2,
		OtpValidDuration:          Duration(5 * time.Minute),
		UseAuthentication:         false,
		AuthenticationFilePath:    "",
		DataPath:                  "./data",
		LogPath:                   "./gfscore.log",
	}
}

// Load reads a TOML file at path, falling back to Default for any field
// omitted, then applies environment-variable overrides (prefix GFS).
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}

		if err := toml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := envconfig.Process("GFS", &cfg); err != nil {
		return nil, fmt.Errorf("applying env overrides: %w", err)
	}

	return &cfg, nil
}

// Package config loads the process configuration, grounded on the
// teacher's internal/config: a single struct read with
// github.com/ilyakaznacheev/cleanenv, exposed through a
// once-initialized singleton getter. Extended from the teacher's
// listen-address-only shape to cover the full OCPP/security/domain
// stack surface this module wires.
package config

import (
	"fmt"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	IsDebug *bool `yaml:"is_debug" env-default:"false"`

	Server struct {
		WSHost                 string `yaml:"ws_host" env-default:"0.0.0.0"`
		WSPort                 string `yaml:"ws_port" env-default:"5000"`
		ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds" env-default:"10"`
		TLS                    bool   `yaml:"tls_enabled" env-default:"false"`
		CertFile               string `yaml:"cert_file" env-default:""`
		KeyFile                string `yaml:"key_file" env-default:""`
	} `yaml:"server"`

	Ocpp struct {
		HeartbeatIntervalSeconds     int  `yaml:"heartbeat_interval_seconds" env-default:"300"`
		LivenessKFactor              int  `yaml:"liveness_k_factor" env-default:"3"`
		CommandTimeoutSeconds        int  `yaml:"command_timeout_seconds" env-default:"30"`
		ReconnectDebounceSeconds     int  `yaml:"reconnect_debounce_seconds" env-default:"5"`
		OutboundQueueCapacity        int  `yaml:"outbound_queue_capacity" env-default:"128"`
		MaxFrameBytes                int  `yaml:"max_frame_bytes" env-default:"65536"`
		PermissiveSubprotocolFallback bool `yaml:"permissive_subprotocol_fallback" env-default:"false"`
	} `yaml:"ocpp"`

	Security struct {
		WSAuthMode              string `yaml:"ws_auth_mode" env-default:"none"`
		RejectUnknownChargePoints bool `yaml:"reject_unknown_charge_points" env-default:"true"`
		RejectUnknownIdTags     bool   `yaml:"reject_unknown_id_tags" env-default:"false"`
	} `yaml:"security"`

	Mongo struct {
		Enabled  bool   `yaml:"enabled" env-default:"false"`
		URI      string `yaml:"uri" env-default:"mongodb://localhost:27017"`
		Database string `yaml:"database" env-default:"csms"`
	} `yaml:"mongo"`

	Nats struct {
		Enabled bool   `yaml:"enabled" env-default:"false"`
		URL     string `yaml:"url" env-default:"nats://localhost:4222"`
		Subject string `yaml:"subject" env-default:"csms.events"`
	} `yaml:"nats"`

	Telegram struct {
		Enabled bool   `yaml:"enabled" env-default:"false"`
		Token   string `yaml:"token" env-default:""`
		ChatId  int64  `yaml:"chat_id" env-default:"0"`
	} `yaml:"telegram"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" env-default:"true"`
		Path    string `yaml:"path" env-default:"/metrics"`
		Port    string `yaml:"port" env-default:"9090"`
	} `yaml:"metrics"`
}

var (
	instance *Config
	once     sync.Once
)

// GetConfig reads the YAML file at path exactly once per process and caches the
// result, matching the teacher's singleton-getter shape.
func GetConfig(path string) (*Config, error) {
	var err error
	once.Do(func() {
		instance = &Config{}
		if readErr := cleanenv.ReadConfig(path, instance); readErr != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("reading config %s: %w\n%s", path, readErr, desc)
			instance = nil
		}
	})
	return instance, err
}

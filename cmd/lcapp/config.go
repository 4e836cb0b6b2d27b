// Wiring config for the lcapp entrypoint: bus endpoint/geometry, RTS
// endpoint, and the reserved MessageIDs, separate from the WDT/ADT table
// image itself (see internal/lctable). Shape follows
// internal/config/config.go's plain nested-struct-with-yaml-tags style.
package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// AppConfig is the top-level lcapp configuration document.
type AppConfig struct {
	TablePath  string          `yaml:"table_path"`
	Bus        BusConfig       `yaml:"bus"`
	RTS        RTSConfig       `yaml:"rts"`
	MessageIDs MessageIDConfig `yaml:"message_ids"`
}

// BusConfig describes the one Modbus endpoint used for both inbound
// register-block polling and outbound HK delivery.
type BusConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	UnitID         uint8         `yaml:"unit_id"`
	TimeoutMs      int           `yaml:"timeout_ms"`
	PollIntervalMs int           `yaml:"poll_interval_ms"`
	HKAddress      uint16        `yaml:"hk_address"`
	Blocks         []BlockConfig `yaml:"blocks"`
}

// BlockConfig ties a fixed register read to the MessageID it represents.
type BlockConfig struct {
	MessageID uint32 `yaml:"message_id"`
	Address   uint16 `yaml:"address"`
	Quantity  uint16 `yaml:"quantity"`
}

// RTSConfig is the RTS executor's endpoint.
type RTSConfig struct {
	Endpoint  string `yaml:"endpoint"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// MessageIDConfig names the three reserved MessageIDs, per spec §6.
type MessageIDConfig struct {
	SampleAP uint32 `yaml:"sample_ap"`
	SendHK   uint32 `yaml:"send_hk"`
	Cmd      uint32 `yaml:"cmd"`
}

// LoadAppConfig reads and parses path into an AppConfig.
func LoadAppConfig(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Package config carries client configuration and its file and environment
// loaders.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Default and Normalize.
const (
	DefaultBatchByteCeiling = 256000
	DefaultSubmitInterval   = 10 * time.Second
	DefaultRequestTimeout   = 30 * time.Second
)

// Config holds client configuration.
// Zero fields are filled with defaults by Normalize.
type Config struct {
	// Endpoint is the ingestion service URL batches are submitted to.
	Endpoint string `yaml:"endpoint" json:"endpoint" env:"EVENTSINK_ENDPOINT"`

	// AppID identifies the application to the ingestion service.
	AppID string `yaml:"app_id" json:"app_id" env:"EVENTSINK_APP_ID"`

	// BatchByteCeiling is the soft per-batch payload limit. Batches are cut
	// so their serialized size stays under this ceiling, and the queue is
	// eagerly submitted once its serialized size reaches it.
	BatchByteCeiling int `yaml:"batch_byte_ceiling" json:"batch_byte_ceiling" env:"EVENTSINK_BATCH_BYTE_CEILING"`

	// AutoSubmit enables the periodic submission scheduler.
	AutoSubmit bool `yaml:"auto_submit" json:"auto_submit" env:"EVENTSINK_AUTO_SUBMIT"`

	// SubmitInterval is the period of the automatic submission scheduler.
	SubmitInterval Duration `yaml:"submit_interval" json:"submit_interval" env:"EVENTSINK_SUBMIT_INTERVAL"`

	// RequestTimeout bounds one submission request.
	RequestTimeout Duration `yaml:"request_timeout" json:"request_timeout" env:"EVENTSINK_REQUEST_TIMEOUT"`

	// StoragePath is the path for the durable store, when the caller lets
	// the client create one. Empty selects the in-memory store.
	StoragePath string `yaml:"storage_path" json:"storage_path" env:"EVENTSINK_STORAGE_PATH"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		BatchByteCeiling: DefaultBatchByteCeiling,
		AutoSubmit:       true,
		SubmitInterval:   Duration(DefaultSubmitInterval),
		RequestTimeout:   Duration(DefaultRequestTimeout),
	}
}

// Normalize returns a copy with zero fields filled from Default.
func (c Config) Normalize() Config {
	if c.BatchByteCeiling <= 0 {
		c.BatchByteCeiling = DefaultBatchByteCeiling
	}
	if c.SubmitInterval <= 0 {
		c.SubmitInterval = Duration(DefaultSubmitInterval)
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = Duration(DefaultRequestTimeout)
	}
	return c
}

// Validate reports configuration that cannot work.
func (c Config) Validate() error {
	var errs []error
	if c.BatchByteCeiling <= 0 {
		errs = append(errs, fmt.Errorf("batch_byte_ceiling must be positive, got %d", c.BatchByteCeiling))
	}
	if c.AutoSubmit && c.SubmitInterval <= 0 {
		errs = append(errs, fmt.Errorf("submit_interval must be positive when auto_submit is enabled, got %s", c.SubmitInterval))
	}
	return errors.Join(errs...)
}

// Duration wraps time.Duration so config files and environment variables can
// use "10s" style strings or plain second counts.
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String implements fmt.Stringer.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalText implements encoding.TextUnmarshaler (used by env parsing).
func (d *Duration) UnmarshalText(text []byte) error {
	return d.parse(string(text))
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return d.parse(raw)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = raw[1 : len(raw)-1]
	}
	return d.parse(raw)
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// parse accepts "10s" style strings and bare numbers meaning seconds.
func (d *Duration) parse(raw string) error {
	if raw == "" {
		*d = 0
		return nil
	}
	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		*d = Duration(time.Duration(secs * float64(time.Second)))
		return nil
	}
	return fmt.Errorf("invalid duration %q", raw)
}

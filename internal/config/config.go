// Package config loads the four core options recognized by the overlay
// (spec.md §6 "Configuration options"), in the teacher's
// Config/Validate/SetDefaults pattern (see
// _examples/rmacdonaldsmith-eventmesh-go/internal/meshnode/config.go).
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// defaultTTL matches broker's default ttl option
// (_examples/original_source), used when an options file omits ttl.
const defaultTTL = 10

// ErrInvalidTTL is returned when ttl is 0: a message could never be
// forwarded even one hop.
var ErrInvalidTTL = errors.New("config: ttl must be greater than 0")

// Options are the YAML-configurable knobs recognized by the core
// (spec.md §6).
type Options struct {
	// Forward enables onward relay of peer-batch messages across peers.
	Forward bool `yaml:"forward"`
	// TTL is the default time-to-live stamped on published node messages.
	TTL uint16 `yaml:"ttl"`
	// RecordingDirectory, if non-empty and a directory, enables recording.
	RecordingDirectory string `yaml:"recording-directory"`
	// OutputGeneratorFileCap caps the number of messages a recorder will
	// accept before it stops writing.
	OutputGeneratorFileCap uint64 `yaml:"output-generator-file-cap"`
}

// Default returns the options the core falls back to when nothing is
// configured: forwarding on, the default TTL, recording disabled.
func Default() Options {
	return Options{
		Forward: true,
		TTL:     defaultTTL,
	}
}

// SetDefaults fills any zero-valued field in o with the default that would
// have applied had it been omitted from the YAML document entirely.
func (o *Options) SetDefaults() {
	if o.TTL == 0 {
		o.TTL = defaultTTL
	}
}

// Validate reports whether o describes a usable configuration.
func (o *Options) Validate() error {
	if o.TTL == 0 {
		return ErrInvalidTTL
	}
	if o.RecordingDirectory != "" {
		info, err := os.Stat(o.RecordingDirectory)
		if err != nil {
			return fmt.Errorf("config: recording-directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("config: recording-directory %q is not a directory", o.RecordingDirectory)
		}
	}
	return nil
}

// Load reads and validates Options from a YAML file at path, applying
// defaults to any field the document omits.
func Load(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	opts := Default()
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

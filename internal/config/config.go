// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package config loads the locksim server configuration.
//
// Values come from, in increasing priority: built-in defaults, an optional
// YAML file and LOCKSIM_ environment variables. Environment keys are lower
// cased, with a double underscore as the section separator:
// LOCKSIM_CSR__DATA_WIDTH sets csr.data_width.
//
package config

import (
	"io"
	"os"
	"strings"

	"github.com/db47h/locksim/blocks"
	"github.com/db47h/locksim/csr"
	"github.com/db47h/locksim/top"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	yml "gopkg.in/yaml.v2"
)

// FileName is the default configuration file name.
//
const FileName = "locksim.yml"

// EnvPrefix prefixes environment overrides.
//
const EnvPrefix = "LOCKSIM_"

// Config is the server configuration.
//
type Config struct {
	// HTTP listen address.
	Addr string `koanf:"addr" yaml:"addr"`
	// Core clock rate in Hz. Zero or less runs as fast as possible.
	ClockHz float64 `koanf:"clock_hz" yaml:"clock_hz"`
	// Simulation worker goroutines.
	Workers int `koanf:"workers" yaml:"workers"`
	// Register address space.
	CSR csr.Config `koanf:"csr" yaml:"csr"`
	// Bank index overrides, in addition to top.DefaultOverrides.
	Overrides map[string]int `koanf:"overrides" yaml:"overrides"`
	// Number of GPIO pins.
	GPIOWidth int `koanf:"gpio_width" yaml:"gpio_width"`
	// GPIO input synchronizer depth.
	SyncDepth int `koanf:"sync_depth" yaml:"sync_depth"`
	// Filter stage transform, see blocks.Transforms.
	Transform string `koanf:"transform" yaml:"transform"`
	// logrus level name.
	LogLevel string `koanf:"log_level" yaml:"log_level"`
}

// Default returns the default configuration.
//
func Default() Config {
	ovr := make(map[string]int)
	for k, v := range top.DefaultOverrides {
		ovr[k] = v
	}
	return Config{
		Addr:      ":8000",
		ClockHz:   1e6,
		Workers:   1,
		CSR:       csr.DefaultConfig,
		Overrides: ovr,
		GPIOWidth: 8,
		SyncDepth: blocks.MinSyncDepth,
		Transform: "passthrough",
		LogLevel:  "info",
	}
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(s, "__", ".", -1)
}

// Load loads the configuration. path names an optional YAML file; a missing
// file is not an error.
//
func Load(path string) (Config, error) {
	var c Config
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return c, errors.Wrap(err, "load defaults")
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err = k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return c, errors.Wrapf(err, "load %s", path)
			}
			log.WithField("file", path).Debug("config: loaded")
		} else if !os.IsNotExist(err) {
			return c, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return c, errors.Wrap(err, "load environment")
	}
	if err := k.Unmarshal("", &c); err != nil {
		return c, errors.Wrap(err, "decode configuration")
	}
	return c, c.Validate()
}

// Validate checks values that cannot be checked when building the system.
//
func (c Config) Validate() error {
	if _, err := blocks.TransformByName(c.Transform); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Workers < 0 {
		return errors.Errorf("invalid worker count %d", c.Workers)
	}
	return nil
}

// Level returns the configured log level, Info if invalid.
//
func (c Config) Level() log.Level {
	l, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return l
}

// Options returns the system options for c.
//
func (c Config) Options() (top.Options, error) {
	tf, err := blocks.TransformByName(c.Transform)
	if err != nil {
		return top.Options{}, err
	}
	cfg := c.CSR
	ovr := make(map[string]int)
	for k, v := range top.DefaultOverrides {
		ovr[k] = v
	}
	for k, v := range c.Overrides {
		ovr[k] = v
	}
	return top.Options{
		CSR:       &cfg,
		Transform: tf,
		GPIOWidth: c.GPIOWidth,
		SyncDepth: c.SyncDepth,
		Overrides: ovr,
		Workers:   c.Workers,
	}, nil
}

// Encode writes c as YAML.
//
func (c Config) Encode(w io.Writer) error {
	enc := yml.NewEncoder(w)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}

/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "JOYBUG"

	DefaultServerAddress = "127.0.0.1:9000"
	DefaultDialTimeout   = 5 * time.Second
	DefaultLogBufferSize = 1000

	ServerAddressKey       = "server_address"
	LaunchCommandKey       = "launch_command"
	DialTimeoutKey         = "dial_timeout"
	ConnectRetryTimeoutKey = "connect_retry_timeout"
	FeedAddressKey         = "feed_address"
	LogBufferSizeKey       = "log_buffer_size"
	AutoContinueKey        = "auto_continue"
)

// Config holds the settings of a joybug run.
type Config struct {
	// Address (host:port) of the debug server.
	ServerAddress string `mapstructure:"server_address"`

	// Command line of the process the debug server should launch.
	LaunchCommand string `mapstructure:"launch_command"`

	// Timeout for establishing each of the two connections.
	DialTimeout time.Duration `mapstructure:"dial_timeout"`

	// When positive, failed connection attempts are retried until this much time elapses.
	ConnectRetryTimeout time.Duration `mapstructure:"connect_retry_timeout"`

	// Address to serve the WebSocket snapshot feed on. Empty disables the feed.
	FeedAddress string `mapstructure:"feed_address"`

	// Maximum number of log entries kept for display.
	LogBufferSize int `mapstructure:"log_buffer_size"`

	// Resume automatically at every debug event instead of asking the operator.
	AutoContinue bool `mapstructure:"auto_continue"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		ServerAddress: DefaultServerAddress,
		DialTimeout:   DefaultDialTimeout,
		LogBufferSize: DefaultLogBufferSize,
	}
}

// SetDefaults registers default values with the given viper instance.
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault(ServerAddressKey, defaults.ServerAddress)
	v.SetDefault(LaunchCommandKey, defaults.LaunchCommand)
	v.SetDefault(DialTimeoutKey, defaults.DialTimeout)
	v.SetDefault(ConnectRetryTimeoutKey, defaults.ConnectRetryTimeout)
	v.SetDefault(FeedAddressKey, defaults.FeedAddress)
	v.SetDefault(LogBufferSizeKey, defaults.LogBufferSize)
	v.SetDefault(AutoContinueKey, defaults.AutoContinue)
}

// AddFlags adds the configuration flags to the flag set.
// Flag names use dashes; they are mapped to the underscore keys when bound.
func AddFlags(fs *pflag.FlagSet) {
	defaults := Default()

	fs.String(flagName(ServerAddressKey), defaults.ServerAddress, "Address (host:port) of the debug server")
	fs.String(flagName(LaunchCommandKey), defaults.LaunchCommand, "Command line of the process to debug")
	fs.Duration(flagName(DialTimeoutKey), defaults.DialTimeout, "Timeout for connecting to the debug server")
	fs.Duration(flagName(ConnectRetryTimeoutKey), defaults.ConnectRetryTimeout, "Keep retrying failed connection attempts for this long (0 disables retries)")
	fs.String(flagName(FeedAddressKey), defaults.FeedAddress, "Address to serve the WebSocket snapshot feed on (empty disables the feed)")
	fs.Int(flagName(LogBufferSizeKey), defaults.LogBufferSize, "Maximum number of log entries kept for display")
	fs.Bool(flagName(AutoContinueKey), defaults.AutoContinue, "Resume automatically at every debug event")
}

// Load builds the configuration from (in increasing precedence) defaults, the optional
// YAML config file, JOYBUG_ environment variables, and explicitly set flags.
func Load(configFile string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("could not read configuration file '%s': %w", configFile, err)
		}
	}

	if fs != nil {
		for _, key := range []string{
			ServerAddressKey, LaunchCommandKey, DialTimeoutKey, ConnectRetryTimeoutKey,
			FeedAddressKey, LogBufferSizeKey, AutoContinueKey,
		} {
			if f := fs.Lookup(flagName(key)); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("could not bind flag '%s': %w", f.Name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not parse configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ValidationError describes a single invalid configuration value.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// Validate checks the configuration and returns all problems found, joined into one error.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.ServerAddress) == "" {
		errs = append(errs, ValidationError{Field: ServerAddressKey, Value: c.ServerAddress, Message: "must not be empty"})
	} else if _, _, err := net.SplitHostPort(c.ServerAddress); err != nil {
		errs = append(errs, ValidationError{Field: ServerAddressKey, Value: c.ServerAddress, Message: "must be in host:port form"})
	}

	if strings.TrimSpace(c.LaunchCommand) == "" {
		errs = append(errs, ValidationError{Field: LaunchCommandKey, Value: c.LaunchCommand, Message: "must not be empty"})
	}

	if c.DialTimeout <= 0 {
		errs = append(errs, ValidationError{Field: DialTimeoutKey, Value: c.DialTimeout, Message: "must be positive"})
	}

	if c.ConnectRetryTimeout < 0 {
		errs = append(errs, ValidationError{Field: ConnectRetryTimeoutKey, Value: c.ConnectRetryTimeout, Message: "must not be negative"})
	}

	if c.FeedAddress != "" {
		if _, _, err := net.SplitHostPort(c.FeedAddress); err != nil {
			errs = append(errs, ValidationError{Field: FeedAddressKey, Value: c.FeedAddress, Message: "must be in host:port form"})
		}
	}

	if c.LogBufferSize <= 0 {
		errs = append(errs, ValidationError{Field: LogBufferSizeKey, Value: c.LogBufferSize, Message: "must be positive"})
	}

	return errors.Join(errs...)
}

func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

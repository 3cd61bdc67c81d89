/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(t.Name(), pflag.ContinueOnError)
	AddFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", newFlagSet(t, "--launch-command", "notepad.exe"))
	require.NoError(t, err)

	assert.Equal(t, DefaultServerAddress, cfg.ServerAddress)
	assert.Equal(t, "notepad.exe", cfg.LaunchCommand)
	assert.Equal(t, DefaultDialTimeout, cfg.DialTimeout)
	assert.Equal(t, time.Duration(0), cfg.ConnectRetryTimeout)
	assert.Empty(t, cfg.FeedAddress)
	assert.Equal(t, DefaultLogBufferSize, cfg.LogBufferSize)
	assert.False(t, cfg.AutoContinue)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "joybug.yaml")
	content := []byte(`
server_address: 10.0.0.1:9100
launch_command: calc.exe
dial_timeout: 2s
log_buffer_size: 50
`)
	require.NoError(t, os.WriteFile(configFile, content, 0600))

	t.Setenv("JOYBUG_LOG_BUFFER_SIZE", "75")
	t.Setenv("JOYBUG_AUTO_CONTINUE", "true")

	cfg, err := Load(configFile, newFlagSet(t, "--server-address", "192.168.1.5:9000"))
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.5:9000", cfg.ServerAddress, "explicit flag wins over the file")
	assert.Equal(t, "calc.exe", cfg.LaunchCommand, "file value is used when nothing overrides it")
	assert.Equal(t, 2*time.Second, cfg.DialTimeout)
	assert.Equal(t, 75, cfg.LogBufferSize, "environment wins over the file")
	assert.True(t, cfg.AutoContinue)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.yaml")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg := Default()
		cfg.LaunchCommand = "notepad.exe"
		return cfg
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty server address", func(c *Config) { c.ServerAddress = " " }, ServerAddressKey},
		{"server address without port", func(c *Config) { c.ServerAddress = "localhost" }, ServerAddressKey},
		{"empty launch command", func(c *Config) { c.LaunchCommand = "" }, LaunchCommandKey},
		{"zero dial timeout", func(c *Config) { c.DialTimeout = 0 }, DialTimeoutKey},
		{"negative retry timeout", func(c *Config) { c.ConnectRetryTimeout = -time.Second }, ConnectRetryTimeoutKey},
		{"bad feed address", func(c *Config) { c.FeedAddress = "nope" }, FeedAddressKey},
		{"zero log buffer", func(c *Config) { c.LogBufferSize = 0 }, LogBufferSizeKey},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			tc.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var ve ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)

	for _, field := range []string{ServerAddressKey, LaunchCommandKey, DialTimeoutKey, LogBufferSizeKey} {
		assert.Contains(t, err.Error(), field)
	}
}

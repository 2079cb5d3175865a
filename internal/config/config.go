// Package config holds process configuration with the precedence
// file > environment > defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"tcpchat/pkg/wire"
)

// Config carries the settings of one tcpchat process.
type Config struct {
	Chat *ChatConfig `json:"chat"`
	Log  *LogConfig  `json:"log"`
}

// ChatConfig holds the identity and connection defaults offered to the user.
// Host is only used when connecting, Port both when connecting and hosting.
type ChatConfig struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
}

// LogConfig controls operator logging. An empty file path sends log output to
// stderr in serve mode and discards it in TUI mode.
type LogConfig struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

// DefaultConfig mirrors the defaults the original chat dialog pre-filled.
func DefaultConfig() *Config {
	return &Config{
		Chat: &ChatConfig{
			Name:     "Max",
			Password: "",
			Host:     "127.0.0.1",
			Port:     4444,
		},
		Log: &LogConfig{
			Level: "info",
			File:  "",
		},
	}
}

// Validate rejects settings that could never produce a working session:
// a name carrying the wire delimiter or an out-of-range port.
func (c *Config) Validate() error {
	if c.Chat == nil {
		return fmt.Errorf("chat configuration is required")
	}
	if !wire.IsValidName(c.Chat.Name) {
		return fmt.Errorf("invalid name %q: %w", c.Chat.Name, wire.ErrNameHasDelimiter)
	}
	if c.Chat.Port < 0 || c.Chat.Port > 0xFFFF {
		return fmt.Errorf("invalid port %d: %w", c.Chat.Port, wire.ErrPortOutOfRange)
	}
	if c.Log == nil {
		return fmt.Errorf("log configuration is required")
	}
	return nil
}

// LoadFromEnv returns the defaults overridden by any TCPCHAT_* environment
// variables. Unparseable values keep the default.
func LoadFromEnv() *Config {
	config := DefaultConfig()

	if name := os.Getenv("TCPCHAT_NAME"); name != "" {
		config.Chat.Name = name
	}

	if password, ok := os.LookupEnv("TCPCHAT_PASSWORD"); ok {
		config.Chat.Password = password
	}

	if host := os.Getenv("TCPCHAT_HOST"); host != "" {
		config.Chat.Host = host
	}

	if port := os.Getenv("TCPCHAT_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Chat.Port = p
		}
	}

	if level := os.Getenv("TCPCHAT_LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}

	if file := os.Getenv("TCPCHAT_LOG_FILE"); file != "" {
		config.Log.File = file
	}

	return config
}

// LoadFromFile reads a JSON config file. Sections absent from the file keep
// their defaults; the merged result is validated before it is returned.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var file Config
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	config := DefaultConfig()
	if file.Chat != nil {
		if file.Chat.Name != "" {
			config.Chat.Name = file.Chat.Name
		}
		if file.Chat.Password != "" {
			config.Chat.Password = file.Chat.Password
		}
		if file.Chat.Host != "" {
			config.Chat.Host = file.Chat.Host
		}
		if file.Chat.Port > 0 {
			config.Chat.Port = file.Chat.Port
		}
	}
	if file.Log != nil {
		if file.Log.Level != "" {
			config.Log.Level = file.Log.Level
		}
		if file.Log.File != "" {
			config.Log.File = file.Log.File
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}

	return config, nil
}

// LoadWithPrecedence merges configuration sources: a config file beats
// environment variables, which beat the built-in defaults. File errors are
// ignored so that environment and defaults still work without one.
func LoadWithPrecedence(path string) *Config {
	config := LoadFromEnv()

	if path != "" {
		if fileConfig, err := LoadFromFile(path); err == nil {
			config = fileConfig
		}
	}

	return config
}

// Package config provides configuration helpers for storline commands.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default worker configuration.
const (
	DefaultPort           = 8080
	DefaultWebhookTimeout = 5 * time.Second
	DefaultLanguage       = "en"
)

// Env returns the value of an environment variable, or the fallback if unset.
func Env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// EnvRequired returns the value of an environment variable.
// Exits with a usage message if not set.
func EnvRequired(key string) string {
	v := os.Getenv(key)
	if v == "" {
		fmt.Fprintf(os.Stderr, "Error: %s environment variable is required\n", key)
		os.Exit(1)
	}
	return v
}

// EnvInt returns an integer environment variable, or the fallback if unset
// or unparseable.
func EnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// EnvDuration returns a duration environment variable (e.g. "5s"), or the
// fallback if unset or unparseable.
func EnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

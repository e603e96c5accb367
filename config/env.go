package config

import (
	"os"
	"strconv"
	"strings"
)

// GetEnv returns the value of an environment variable, or "" when unset
func GetEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// GetEnvOrDefault returns the environment value or the fallback when it is empty
func GetEnvOrDefault(key, fallback string) string {
	if value := GetEnv(key); value != "" {
		return value
	}
	return fallback
}

// GetEnvInt parses an integer environment variable. Unparseable values fall back.
func GetEnvInt(key string, fallback int) int {
	value := GetEnv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// GetEnvBool parses a boolean environment variable ("true", "1", "false", "0", ...)
func GetEnvBool(key string, fallback bool) bool {
	value := GetEnv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

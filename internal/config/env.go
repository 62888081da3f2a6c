package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// getEnv returns the variable or fallback when unset or blank.
func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Helper to get float64 env with default
func (c *Config) getEnvAsFloat64(key string, fallback float64) float64 {
	valueStr, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(valueStr) == "" {
		return fallback
	}
	val, err := strconv.ParseFloat(strings.TrimSpace(valueStr), 64)
	if err != nil {
		c.Warnings = append(c.Warnings, fmt.Sprintf("Invalid float64 %q for %s, using default %g", valueStr, key, fallback))
		return fallback
	}
	return val
}

// Helper to get int env with default
func (c *Config) getEnvAsInt(key string, fallback int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(valueStr) == "" {
		return fallback
	}
	val, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		c.Warnings = append(c.Warnings, fmt.Sprintf("Invalid int %q for %s, using default %d", valueStr, key, fallback))
		return fallback
	}
	return val
}

// Package config provides configuration loading and validation.
//
// It uses Viper to load configuration from YAML files and environment
// variables, with .env files loaded via godotenv. Environment variables
// override file values using underscore-separated paths (e.g.
// SERVER_PORT, ASR_API_KEY).
package config

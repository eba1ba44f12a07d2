// Package config provides centralized configuration management for the
// expenditure pipeline.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority), including a local .env file
//	2. A YAML configuration file (config.yaml, configs/config.yaml or EXP_CONFIG_FILE)
//	3. Default values from struct tags (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern EXP_<SECTION>_<FIELD>:
//
//	EXP_SERVER_PORT=8080
//	EXP_PATHS_RAW_DIR=data/raw
//	EXP_PIPELINE_WORKERS=4
//	EXP_PIPELINE_CATEGORIES=Education,Health
//	EXP_DATABASE_ENABLED=true
//	EXP_DATABASE_DRIVER=postgres
//
// # Validation
//
// Load validates the merged result with go-playground/validator using the
// validate tags on each section. Paths are resolved separately by GetPaths so
// tests can point a Config at a temporary directory.
package config

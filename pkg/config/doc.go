// Package config provides configuration management for the Creo Trail
// classification backend and its CLI.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with .env and environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention CREOTRAIL_SECTION_FIELD.
// For example:
//
//   - CREOTRAIL_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - CREOTRAIL_DATABASE_DSN overrides database.dsn
//   - CREOTRAIL_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// A .env file in the working directory is read first; variables that are
// already set in the process environment win over it.
//
// # Configuration Precedence
//
//  1. Default values (defaults.go)
//  2. Values from the YAML file
//  3. .env file
//  4. Environment variable overrides
//  5. Validation (fails fast if invalid)
//
// # Secret References
//
// database.dsn, client.api_key and the API key list may contain
// ${secret:name} references. ResolveSecrets expands them after loading.
package config

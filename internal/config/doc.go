// Package config provides centralized configuration management for the annual
// return service and CLI. It loads configuration from multiple sources,
// validates it and resolves the file system paths the application writes to.
//
// # Configuration Sources
//
// Configuration is built in layers, later layers overriding earlier ones:
//
//	1. Default values (Default)
//	2. YAML file: ESG_CONFIG_FILE, else config.yaml or configs/config.yaml
//	3. Environment variables with the ESG_ prefix
//
// # Environment Variables
//
// Nested sections map to underscore-joined names:
//
//	ESG_RETURNS_PARTIAL_POLICY=annualize_by_span
//	ESG_RETURNS_MIN_MONTHS_FOR_PARTIAL=4
//	ESG_SERVER_PORT=9090
//	ESG_LOGGING_LEVEL=debug
//	ESG_SECURITY_ALLOWED_ORIGINS=http://localhost:3000,http://localhost:8080
//
// # Validation
//
// The loaded configuration is checked with validator tags. Policy names,
// clip modes, log levels and numeric ranges are rejected at load time so the
// engine never sees an invalid policy from configuration.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	paths, err := config.ResolvePaths(cfg.Paths)
package config

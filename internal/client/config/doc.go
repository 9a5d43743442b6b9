// Package config loads runtime configuration for the usersync CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional YAML or JSON file passed as --config/-c.
//  3. Environment variables prefixed with USERSYNC_ (USERSYNC_PAGE_SIZE=50).
//  4. Command-line flags, passed to Load as overrides.
//
// Keys are snake_case in every source:
//
//	users_url: https://randomuser.me/api/
//	page_size: 25
//	request_timeout: 15s
//	db_driver: sqlite        # or pgx
//	db_dsn: usersync.db
//	online_check_interval: 3s
//	probe_url: https://randomuser.me/
//	log_level: info
//	log_format: text         # or json
//	export_dir: exports
//	s3_bucket: backups
//
// The result is validated with go-playground/validator; violations are
// reported together and wrap ErrInvalidConfig.
package config

// Package config loads statekit service configuration.
//
// Values come from a YAML file (config.yml, searched under cmd/<service>/ and
// config/), then a .env file, then the process environment. Environment
// variables are lower-cased and mapped onto nested keys, so
// QUERY_KEEP_UNUSED_FOR sets query.keep_unused_for.
//
// # Usage
//
//	var cfg daemon.Config
//	if err := config.LoadConfig("statekitd", &cfg); err != nil { ... }
package config

// Package config loads and validates tracker configuration from YAML.
//
// Configuration is layered: file values, then ${VAR} environment
// expansion, then defaults for anything left unset. Validate catches
// misconfiguration before any component starts.
package config

// Package config provides swarmflow's configuration management.
//
// Configuration is loaded in priority order: built-in defaults, then a
// YAML file, then environment variables prefixed with SWARMFLOW.
package config

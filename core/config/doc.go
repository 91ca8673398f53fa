// Package config loads application configuration from environment variables
// and an optional .env file.
//
// Defaults come from 'default' struct tags on the partial config structs,
// bound into Viper by reflection, so every key is registered for
// AutomaticEnv. Environment variables map to nested keys by underscore,
// e.g. DATABASE_HOST -> database.host.
package config

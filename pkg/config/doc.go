// Package config loads application configuration from SCOLARIS_* environment
// variables and validates it before the server starts. The pipeline consumes
// configuration (signing secret, rate-limit windows); it never generates it.
package config

// Package config loads, normalizes, and validates remoteaccessd configuration.
//
// It supplies defaults matching a stock Raspberry Pi image, expands user
// paths, reads TOML files, and lets the daemon's positional arguments
// override the input device, watch directory and toggle mode. Always obtain
// settings through this package so downstream code receives sanitized paths
// and clear validation errors.
package config

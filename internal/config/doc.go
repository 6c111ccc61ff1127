// Package config provides configuration structures and utilities for
// LeakLens. It defines the scan options (backend endpoint, tunnel,
// STUN servers, score thresholds) and report generation preferences.
package config

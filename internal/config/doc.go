// Package config provides configuration for a11yscan: defaults, validation,
// the .a11yscan site file, environment variables and XDG directories.
package config

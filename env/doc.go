// Package env provides a layered, read-only view of configuration properties.
//
// Properties come from a [PropertySource], such as command line arguments, environment variables, or a config file.
// An [Environment] combines sources in order of precedence, and provides typed getters that fall back to a default.
package env

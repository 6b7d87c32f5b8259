// Package slogx has helpers for building and combining [log/slog] loggers.
package slogx

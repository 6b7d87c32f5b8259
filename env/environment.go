package env

import (
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Environment layers several [PropertySource] into one view of an application's configuration.
// Sources given earlier take precedence over those given later.
// Keys are compared case-insensitive.
type Environment struct {
	sources []PropertySource
}

// New creates an [Environment] from the given sources, in order of precedence. Nil sources are skipped.
func New(sources ...PropertySource) *Environment {
	e := &Environment{}
	for _, src := range sources {
		if src != nil {
			e.sources = append(e.sources, src)
		}
	}
	return e
}

// Sources returns the property sources in order of precedence.
func (e *Environment) Sources() []PropertySource {
	return slices.Clone(e.sources)
}

// Lookup returns the raw value of the property from the first source that has it.
func (e *Environment) Lookup(key string) (string, bool) {
	key = normalizeKey(key)
	for _, src := range e.sources {
		if val, ok := src.Lookup(key); ok {
			return val, true
		}
	}
	return "", false
}

// Keys returns every key known to any source, sorted.
func (e *Environment) Keys() []string {
	keys := map[string]bool{}
	for _, src := range e.sources {
		for _, k := range src.Keys() {
			keys[normalizeKey(k)] = true
		}
	}
	return slices.Sorted(maps.Keys(keys))
}

// Val will attempt to get a property value using the given key.
// If the property isn't set, or is empty, then the defaultVal will be returned.
func (e *Environment) Val(key string, defaultVal string) string {
	if val, ok := e.Lookup(key); ok {
		trimmed := strings.TrimSpace(val)
		if len(trimmed) == 0 {
			return defaultVal
		}
		return trimmed
	}
	return defaultVal
}

// BoolIf allows translating a property value to a boolean using the given translation map.
// It's expected for the user to populate translation with a set of strings that relate to the map key.
// A whitelist for one particular value can be created by setting either the true or false slice to be empty.
// These values will be compared in a case-insensitive way.
//
// The defaultVal will be returned if the property isn't set, is empty, or can't be a boolean value.
func (e *Environment) BoolIf(key string, defaultVal bool, translation map[bool][]string) bool {
	sval := strings.ToLower(e.Val(key, ""))
	if len(sval) == 0 || translation == nil {
		return defaultVal
	}
	for _, v := range translation[true] {
		if sval == strings.ToLower(v) {
			return true
		}
	}
	for _, v := range translation[false] {
		if sval == strings.ToLower(v) {
			return false
		}
	}
	return defaultVal
}

var (
	DefaultTrue  = []string{"1", "yes", "true", "on"}  // DefaultTrue are the values considered "true" when using [Environment.Bool], and can be changed.
	DefaultFalse = []string{"0", "no", "false", "off"} // DefaultFalse are the values considered "false" when using [Environment.Bool], and can be changed.
)

// Bool interprets a property as a boolean, using [DefaultTrue] and [DefaultFalse].
func (e *Environment) Bool(key string, defaultVal bool) bool {
	return e.BoolIf(key, defaultVal, map[bool][]string{
		true:  DefaultTrue,
		false: DefaultFalse,
	})
}

// parsed interprets a property with parse, returning the defaultVal if the property isn't found or can't be parsed.
func parsed[T any](e *Environment, key string, defaultVal T, parse func(string) (T, error)) T {
	sval := e.Val(key, "")
	if len(sval) == 0 {
		return defaultVal
	}
	val, err := parse(sval)
	if err != nil {
		return defaultVal
	}
	return val
}

// Int will attempt to interpret a property as an integer, returning the defaultVal if it isn't found or can't be a valid integer.
func (e *Environment) Int(key string, defaultVal int64) int64 {
	return parsed(e, key, defaultVal, func(s string) (int64, error) {
		return strconv.ParseInt(s, 10, 64)
	})
}

// Float will attempt to interpret a property as a float64, returning the defaultVal if it isn't found or can't be a valid float64.
func (e *Environment) Float(key string, defaultVal float64) float64 {
	return parsed(e, key, defaultVal, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// Duration will attempt to interpret a property as a [time.Duration], returning the defaultVal if it isn't found or can't be a valid [time.Duration].
func (e *Environment) Duration(key string, defaultVal time.Duration) time.Duration {
	return parsed(e, key, defaultVal, time.ParseDuration)
}

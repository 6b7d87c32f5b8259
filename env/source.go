package env

import (
	"maps"
	"os"
	"slices"
	"strings"
)

// PropertySource is a named set of configuration properties.
// Keys are expected to be lower case, and an [Environment] always looks them up that way.
type PropertySource interface {
	Name() string
	Lookup(key string) (string, bool)
	Keys() []string
}

var _ PropertySource = (*MapSource)(nil)

// MapSource is a [PropertySource] backed by a map.
type MapSource struct {
	name  string
	props map[string]string
}

// NewMapSource creates a [MapSource] from the given properties.
// Keys are trimmed and made lower case, and the map is copied.
func NewMapSource(name string, props map[string]string) *MapSource {
	src := &MapSource{
		name:  name,
		props: make(map[string]string, len(props)),
	}
	for k, v := range props {
		key := normalizeKey(k)
		if len(key) == 0 {
			continue
		}
		src.props[key] = v
	}
	return src
}

func (s *MapSource) Name() string {
	return s.name
}

func (s *MapSource) Lookup(key string) (string, bool) {
	val, ok := s.props[normalizeKey(key)]
	return val, ok
}

func (s *MapSource) Keys() []string {
	return slices.Sorted(maps.Keys(s.props))
}

func (s *MapSource) Len() int {
	return len(s.props)
}

// FromArgs reads properties from command line arguments in the form "--key=value".
// An argument like "--key" sets the property to an empty value. Any other argument is ignored.
func FromArgs(args []string) *MapSource {
	props := map[string]string{}
	for _, arg := range args {
		if !strings.HasPrefix(arg, "--") {
			continue
		}
		key, val, _ := strings.Cut(arg[2:], "=")
		props[key] = val
	}
	return NewMapSource("args", props)
}

// FromOS reads properties from environment variables.
// Variable names are relaxed into property keys, so ON_AGE becomes "on.age".
// If prefix is not empty, then only keys equal to the prefix or under it are kept.
func FromOS(prefix string) *MapSource {
	prefix = normalizeKey(prefix)
	props := map[string]string{}
	for _, kv := range os.Environ() {
		name, val, found := strings.Cut(kv, "=")
		if !found {
			continue
		}
		key := relaxName(name)
		if len(prefix) > 0 && key != prefix && !strings.HasPrefix(key, prefix+".") {
			continue
		}
		props[key] = val
	}
	return NewMapSource("os", props)
}

func relaxName(name string) string {
	return strings.ReplaceAll(normalizeKey(name), "_", ".")
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

package env

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	ErrEmptyPath         = errors.New("empty config path")
	ErrUnsupportedFormat = errors.New("unsupported config format")
)

// LoadFile reads a configuration file into a [PropertySource], choosing the format from the file extension.
// Supports: .yaml/.yml, .json, .toml
//
// Nested tables are flattened into dotted keys, and list items are keyed by index.
//
//	on:
//	  name: demo
//	  tags: [a, b]
//
// The above results in the keys "on.name", "on.tags[0]" and "on.tags[1]".
func LoadFile(path string) (*MapSource, error) {
	if len(path) == 0 {
		return nil, ErrEmptyPath
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &data)
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.UseNumber()
		err = dec.Decode(&data)
	case ".toml":
		err = toml.Unmarshal(b, &data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}
	props := map[string]string{}
	flatten("", data, props)
	return NewMapSource("file:"+filepath.Base(path), props), nil
}

func flatten(prefix string, value any, props map[string]string) {
	switch v := value.(type) {
	case map[string]any:
		for k, child := range v {
			flatten(joinKey(prefix, k), child, props)
		}
	case map[any]any:
		for k, child := range v {
			flatten(joinKey(prefix, fmt.Sprint(k)), child, props)
		}
	case []any:
		for i, child := range v {
			flatten(prefix+"["+strconv.Itoa(i)+"]", child, props)
		}
	case nil:
		if len(prefix) > 0 {
			props[prefix] = ""
		}
	default:
		if len(prefix) > 0 {
			props[prefix] = fmt.Sprint(v)
		}
	}
}

func joinKey(prefix, key string) string {
	key = normalizeKey(key)
	if len(prefix) == 0 {
		return key
	}
	return prefix + "." + key
}

// Package tools provides the tool registry the agent exposes over A2A.
package tools

import (
	"fmt"

	"github.com/spf13/cast"
)

// Args wraps tool arguments with typed accessor methods.
// JSON numbers decode as float64 and callers send strings where numbers are
// expected often enough that every accessor coerces via cast.
type Args map[string]interface{}

// String gets a required string argument.
func (a Args) String(key string) (string, error) {
	v, ok := a[key]
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("%s must be a string, got %T", key, v)
	}
	return s, nil
}

// StringOr gets an optional string argument with a default.
func (a Args) StringOr(key, defaultVal string) string {
	v, ok := a[key]
	if !ok {
		return defaultVal
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return defaultVal
	}
	return s
}

// Int gets a required integer argument.
func (a Args) Int(key string) (int, error) {
	v, ok := a[key]
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %T", key, v)
	}
	return n, nil
}

// IntOr gets an optional integer argument with a default.
func (a Args) IntOr(key string, defaultVal int) int {
	v, ok := a[key]
	if !ok {
		return defaultVal
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return defaultVal
	}
	return n
}

// Float gets a required float64 argument.
func (a Args) Float(key string) (float64, error) {
	v, ok := a[key]
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %T", key, v)
	}
	return f, nil
}

// FloatOr gets an optional float64 argument with a default.
func (a Args) FloatOr(key string, defaultVal float64) float64 {
	v, ok := a[key]
	if !ok {
		return defaultVal
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return defaultVal
	}
	return f
}

// Bool gets a required boolean argument.
func (a Args) Bool(key string) (bool, error) {
	v, ok := a[key]
	if !ok {
		return false, fmt.Errorf("%s is required", key)
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %T", key, v)
	}
	return b, nil
}

// BoolOr gets an optional boolean argument with a default.
func (a Args) BoolOr(key string, defaultVal bool) bool {
	v, ok := a[key]
	if !ok {
		return defaultVal
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return defaultVal
	}
	return b
}

// Has returns true if the key exists in the arguments.
func (a Args) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// Raw returns the raw value for a key, or nil if not present.
func (a Args) Raw(key string) interface{} {
	return a[key]
}

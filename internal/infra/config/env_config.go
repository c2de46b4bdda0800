package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidConfig is returned when the provided config is not a pointer to a struct
	// that embeds EnvConfig.
	ErrInvalidConfig = errors.New("config must be a pointer to a struct embedding EnvConfig")

	// ErrVarNotSet is returned when a required environment variable is not set and has no default.
	ErrVarNotSet = errors.New("env var not set")

	// ErrUnsupportedVarType is returned when trying to parse an environment variable
	// into an unsupported Go type.
	ErrUnsupportedVarType = errors.New("unsupported env var type")
)

//nolint:gochecknoglobals,exhaustruct
var (
	envConfigType = reflect.TypeOf(EnvConfig{})
	durationType  = reflect.TypeOf(time.Duration(0))
)

// EnvConfig is a base type that must be embedded in configuration structs
// to enable environment variable parsing.
type EnvConfig struct {
	namespace string
}

// Namespace returns the namespace the configuration was parsed with.
func (c EnvConfig) Namespace() string {
	return c.namespace
}

//nolint:varnamelen
func getEnvConfig(cfg any) (*EnvConfig, error) {
	v := reflect.ValueOf(cfg)

	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil, ErrInvalidConfig
	}

	v = v.Elem()
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)
		if !field.Anonymous || field.Type != envConfigType {
			continue
		}

		if ev := v.Field(i); ev.CanAddr() {
			//nolint:forcetypeassert
			return ev.Addr().Interface().(*EnvConfig), nil
		}
	}

	return nil, ErrInvalidConfig
}

// Parse loads configuration values from environment variables into the provided struct.
// The struct must embed EnvConfig and use `env` tags to specify variable names.
// Nested structs contribute their `envPrefix` tag to the variable names of their fields.
//
// The namespace is tried from most to least specific: with namespace "APP_SVC" the
// field `env:"PATH"` inside `envPrefix:"DB_"` is looked up as APP_SVC_DB_PATH,
// APP_DB_PATH and finally DB_PATH. Supports string, bool, signed and unsigned
// integers and time.Duration fields.
func Parse(ctx context.Context, cfg any, namespace string) error {
	envConfig, err := getEnvConfig(cfg)
	if err != nil {
		return fmt.Errorf("get env config: %w", err)
	}

	envConfig.namespace = namespace

	return parseStruct(namespace, "", reflect.ValueOf(cfg).Elem())
}

func parseStruct(namespace, prefix string, v reflect.Value) error {
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)
		value := v.Field(i)

		if field.Type == envConfigType || !field.IsExported() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != durationType {
			if err := parseStruct(namespace, prefix+field.Tag.Get("envPrefix"), value); err != nil {
				return err
			}

			continue
		}

		envTag := field.Tag.Get("env")
		if envTag == "" {
			continue
		}

		raw, err := lookup(namespace, prefix+envTag, field)
		if err != nil {
			return fmt.Errorf("parse field: %w", err)
		}

		if err := setValue(value, raw); err != nil {
			return fmt.Errorf("parse field: %s: %w", prefix+envTag, err)
		}
	}

	return nil
}

// lookup returns the value of the most specific variable set for name,
// falling back to the field's default.
func lookup(namespace, name string, field reflect.StructField) (string, error) {
	nsParts := strings.Split(namespace, "_")

	for i := len(nsParts); i >= 0; i-- {
		envName := strings.Join(nsParts[:i], "_")
		if envName != "" {
			envName += "_"
		}

		if value, ok := os.LookupEnv(envName + name); ok {
			return value, nil
		}
	}

	if value, ok := field.Tag.Lookup("default"); ok {
		return value, nil
	}

	return "", fmt.Errorf("%w: %s", ErrVarNotSet, name)
}

//nolint:exhaustive
func setValue(value reflect.Value, raw string) error {
	if value.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}

		value.SetInt(int64(d))

		return nil
	}

	switch value.Kind() {
	case reflect.String:
		value.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, value.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid int: %w", err)
		}

		value.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, value.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid uint: %w", err)
		}

		value.SetUint(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid bool: %w", err)
		}

		value.SetBool(b)
	default:
		return fmt.Errorf("%w: %v", ErrUnsupportedVarType, value.Kind())
	}

	return nil
}

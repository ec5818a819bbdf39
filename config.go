package ioc

import (
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/sectrean/ioc-kit/internal/errors"
)

// Environment variables read by [LoadConfig].
const (
	EnvStrict      = "IOC_STRICT"
	EnvIdleTimeout = "IOC_IDLE_TIMEOUT"
	EnvValidate    = "IOC_VALIDATE"
)

// Config holds container settings that are usually set per deployment.
type Config struct {
	// Strict fails construction when a required dependency is missing. See [WithStrict].
	Strict bool
	// IdleTimeout is the timeout hint for delayed services. See [WithIdleTimeout].
	IdleTimeout time.Duration
	// Validate checks descriptors on container creation. See [WithDependencyValidation].
	Validate bool
}

// LoadConfig reads a [Config] from the environment and .env files.
//
// Variables already set in the environment take precedence over the files.
// With no files given, ".env" is read if it exists.
func LoadConfig(envFiles ...string) (Config, error) {
	var cfg Config

	fileVals, err := readEnvFiles(envFiles)
	if err != nil {
		return cfg, errors.Wrap(err, "ioc.LoadConfig")
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVals[key]
		return v, ok
	}

	var errs errors.MultiError
	if v, ok := lookup(EnvStrict); ok {
		cfg.Strict, err = strconv.ParseBool(v)
		errs = errs.Append(errors.Wrapf(err, "%s", EnvStrict))
	}
	if v, ok := lookup(EnvIdleTimeout); ok {
		cfg.IdleTimeout, err = time.ParseDuration(v)
		errs = errs.Append(errors.Wrapf(err, "%s", EnvIdleTimeout))
	}
	if v, ok := lookup(EnvValidate); ok {
		cfg.Validate, err = strconv.ParseBool(v)
		errs = errs.Append(errors.Wrapf(err, "%s", EnvValidate))
	}

	return cfg, errs.Wrap("ioc.LoadConfig")
}

func readEnvFiles(files []string) (map[string]string, error) {
	if len(files) > 0 {
		return godotenv.Read(files...)
	}

	// Non-fatal: .env may not exist in production
	vals, err := godotenv.Read(".env")
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	return vals, err
}

// WithConfig applies a [Config] when calling [NewContainer] or [Container.NewChild].
func WithConfig(cfg Config) ContainerOption {
	opts := Module{
		WithStrict(cfg.Strict),
		WithIdleTimeout(cfg.IdleTimeout),
	}
	if cfg.Validate {
		opts = append(opts, WithDependencyValidation())
	}
	return opts
}

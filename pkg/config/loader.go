package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// entry holds the outcome of parsing one configuration type.
type entry struct {
	once  sync.Once
	value any
	err   error
}

var (
	cacheMu sync.Mutex
	cache   = make(map[reflect.Type]*entry)

	dotenvOnce sync.Once
)

func lookup(t reflect.Type) *entry {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	e, ok := cache[t]
	if !ok {
		e = &entry{}
		cache[t] = e
	}
	return e
}

// forget drops e unless another caller already replaced it.
func forget(t reflect.Type, e *entry) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if cache[t] == e {
		delete(cache, t)
	}
}

// LoadEnv loads the given .env files into the process environment, overriding
// variables that are already set. Without arguments it loads ./.env.
// Later files win over earlier ones.
func LoadEnv(paths ...string) error {
	dotenvOnce.Do(func() {})
	if err := godotenv.Overload(paths...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	return nil
}

// MustLoadEnv works like LoadEnv but panics on failure.
func MustLoadEnv(paths ...string) {
	if err := LoadEnv(paths...); err != nil {
		panic(fmt.Sprintf("failed to load env files: %v", err))
	}
}

// Load fills v from the environment. The first successful call for a type
// parses; later calls copy the cached value.
//
// Example:
//
//	var cfg router.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	dotenvOnce.Do(func() {
		// ./.env is optional.
		_ = godotenv.Load()
	})

	t := reflect.TypeFor[T]()
	e := lookup(t)
	e.once.Do(func() {
		var parsed T
		if err := env.Parse(&parsed); err != nil {
			e.err = errors.Join(ErrParsingConfig, err)
			return
		}
		e.value = parsed
	})
	if e.err != nil {
		forget(t, e)
		return e.err
	}
	*v = e.value.(T)
	return nil
}

// MustLoad works like Load but panics if configuration loading fails.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

// ForceReloadConfig drops the cached value of T and parses it again.
func ForceReloadConfig[T any](v *T) error {
	cacheMu.Lock()
	delete(cache, reflect.TypeFor[T]())
	cacheMu.Unlock()
	return Load(v)
}

// ResetCache forgets every loaded configuration.
func ResetCache() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	clear(cache)
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Load fills cfg, a pointer to a struct with `env` tags, from the process
// environment. Keys missing from the environment are looked up in the given
// dotenv files, earlier files winning. Missing files are skipped. The
// process environment is never modified.
func Load(cfg any, dotenv ...string) error {
	vars, err := environ(dotenv)
	if err != nil {
		return err
	}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func environ(dotenv []string) (map[string]string, error) {
	vars := make(map[string]string)
	for i := len(dotenv) - 1; i >= 0; i-- {
		file, err := godotenv.Read(dotenv[i])
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", dotenv[i], err)
		}
		for k, v := range file {
			vars[k] = v
		}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	return vars, nil
}

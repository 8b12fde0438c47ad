package fieldval

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultTemplateKey is the template store key used for rendering
// error messages when no other template is asked for.
const DefaultTemplateKey = "hiValidatorErrorTemplate"

// ErrParsingConfig is returned when environment variables cannot be
// parsed into Config.
var ErrParsingConfig = errors.New("failed to parse environment variables into config")

// Config holds the process level settings of the library.
type Config struct {
	LogLevel        string `env:"FIELDVAL_LOG_LEVEL" envDefault:"off"`
	TemplateKey     string `env:"FIELDVAL_TEMPLATE_KEY" envDefault:"hiValidatorErrorTemplate"`
	DefinitionsFile string `env:"FIELDVAL_DEFINITIONS"`
}

var dotenvLoaded sync.Once

// LoadConfig reads Config from the environment, after loading a .env
// file from the working directory if there is one.
func LoadConfig() (Config, error) {
	dotenvLoaded.Do(func() {
		// The .env file is optional.
		_ = godotenv.Load()
	})

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	return cfg, nil
}

// Setup is the composition root: it creates the registry, registers
// the validators of cfg.DefinitionsFile if set, and returns a binder
// logging at cfg.LogLevel.
func Setup(cfg Config, options ...Option) (*Registry, *Binder, error) {
	reg := NewRegistry()
	if cfg.DefinitionsFile != "" {
		defs, err := LoadDefinitionsFile(cfg.DefinitionsFile)
		if err != nil {
			return nil, nil, fmt.Errorf("setup: %w", err)
		}
		if err := RegisterDefinitions(reg, NewEvaluator(), defs); err != nil {
			return nil, nil, fmt.Errorf("setup: %w", err)
		}
	}

	var opts []Option
	if cfg.LogLevel != "" {
		opts = append(opts, Option{LogLevel, cfg.LogLevel})
	}
	b, err := NewBinder(reg, append(opts, options...)...)
	if err != nil {
		return nil, nil, fmt.Errorf("setup: %w", err)
	}
	return reg, b, nil
}

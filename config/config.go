// Package config loads the engine configuration.
//
// Values are layered, later layers winning:
//   - defaults from DefaultConfig
//   - an optional YAML file
//   - MYRMIDON_* environment variables, e.g. MYRMIDON_ENGINE_MEDIAN_DEPTH
//     for engine.median_depth
package config

import (
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"

	"github.com/LdDl/myrmidon-go/collision"
	"github.com/LdDl/myrmidon-go/identity"
	"github.com/LdDl/myrmidon-go/internal/logging"
)

// EnvPrefix prefixes every environment variable read by Load
const EnvPrefix = "MYRMIDON_"

// Config is the whole configuration
type Config struct {
	Engine EngineConfig `koanf:"engine"`
	Log    LogConfig    `koanf:"log"`
}

// EngineConfig tunes identification and collision detection
type EngineConfig struct {
	// MedianDepth of the KD-tree median estimation, -1 for the exact median
	MedianDepth int `koanf:"median_depth" validate:"gte=-1,lte=32"`
	// Workers processing frames concurrently, 0 for GOMAXPROCS
	Workers int `koanf:"workers" validate:"gte=0"`
	// SkipFailedFrames logs and skips frames that can't be processed
	SkipFailedFrames bool `koanf:"skip_failed_frames"`
	// DefaultTagSize is the tag size of identifications without override
	DefaultTagSize float64 `koanf:"default_tag_size" validate:"gt=0"`
	// TagFamily of the tags, used to convert measurements
	TagFamily string `koanf:"tag_family" validate:"required,tagfamily"`
}

// LogConfig configures the global logger
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// DefaultConfig returns the configuration used when nothing overrides it
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			MedianDepth:    collision.DefaultMedianDepth,
			Workers:        0,
			DefaultTagSize: identity.DefaultTagSize,
			TagFamily:      identity.DefaultFamily,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the configuration. An empty path skips the file layer.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return nil, errors.Wrap(err, "Can't load defaults")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "Can't load config file '%s'", path)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, errors.Wrap(err, "Can't load environment variables")
	}
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "Can't unmarshal configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envTransform maps MYRMIDON_ENGINE_MEDIAN_DEPTH to engine.median_depth
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	section, field, found := strings.Cut(key, "_")
	if !found {
		return key
	}
	return section + "." + field
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	families := identity.NewFamilyTable()
	err := v.RegisterValidation("tagfamily", func(fl validator.FieldLevel) bool {
		_, err := families.CornerWidthRatio(fl.Field().String())
		return err == nil
	})
	if err != nil {
		panic(errors.Wrap(err, "Can't register tag family validation"))
	}
	return v
}

// Validate checks every field of the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "Invalid configuration")
	}
	return nil
}

// ApplyLogging initializes the global logger, writing to w or os.Stderr if nil
func (c *Config) ApplyLogging(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	logging.Init(logging.Config{
		Level:  c.Log.Level,
		Format: c.Log.Format,
		Caller: c.Log.Caller,
		Output: w,
	})
}

// ManagerOptions returns the identity manager options of the configuration
func (c *Config) ManagerOptions() []identity.Option {
	return []identity.Option{
		identity.WithDefaultTagSize(c.Engine.DefaultTagSize),
		identity.WithTagFamily(c.Engine.TagFamily),
		identity.WithLogger(logging.Logger()),
	}
}

// SolverOptions returns the collision solver options of the configuration
func (c *Config) SolverOptions() []collision.SolverOption {
	return []collision.SolverOption{
		collision.WithMedianDepth(c.Engine.MedianDepth),
		collision.WithSolverLogger(logging.Logger()),
	}
}

// BatchOptions returns the batch driver options of the configuration
func (c *Config) BatchOptions() []collision.BatchOption {
	return []collision.BatchOption{
		collision.WithWorkers(c.Engine.Workers),
		collision.WithSkipFailedFrames(c.Engine.SkipFailedFrames),
		collision.WithBatchLogger(logging.Logger()),
	}
}

package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// FlagKeys maps command-line flag names to configuration keys. Flags override the
// environment and the config file only when given explicitly.
var FlagKeys = map[string]string{
	"streets":    "input.streets",
	"boundaries": "input.boundaries",
	"name-field": "input.name_fields",
	"out":        "output.geojson",
	"split-dir":  "output.split_dir",
	"pattern":    "select.patterns",
	"tolerance":  "reduce.tolerance",
	"width":      "buffer.width",
	"debug-name": "debug.names",
	"log-level":  "log.level",
	"port":       "server.port",
	"temporal":   "temporal.enabled",
}

// Config holds all application configuration.
type Config struct {
	Reduce    ReduceConfig    `mapstructure:"reduce"`
	Select    SelectConfig    `mapstructure:"select"`
	Buffer    BufferConfig    `mapstructure:"buffer"`
	Labels    LabelsConfig    `mapstructure:"labels"`
	Input     InputConfig     `mapstructure:"input"`
	Output    OutputConfig    `mapstructure:"output"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
	Debug     DebugConfig     `mapstructure:"debug"`
}

// ReduceConfig controls segment stitching.
type ReduceConfig struct {
	Tolerance float64 `mapstructure:"tolerance"`
}

// SelectConfig controls boundary growth, in coordinate units.
type SelectConfig struct {
	Grow      float64  `mapstructure:"grow"`
	Shrink    float64  `mapstructure:"shrink"`
	MinLength float64  `mapstructure:"min_length"`
	Patterns  []string `mapstructure:"patterns"` // boundary name regexps; empty selects all
}

type BufferConfig struct {
	Width    float64 `mapstructure:"width"`
	QuadSegs int     `mapstructure:"quad_segs"`
}

type LabelsConfig struct {
	Unnamed  []string `mapstructure:"unnamed"`
	Ramp     string   `mapstructure:"ramp"`
	Excluded []string `mapstructure:"excluded"`
}

// InputConfig names the street and boundary files. The format follows the extension
// (.kml or .geojson/.json).
type InputConfig struct {
	Streets    string   `mapstructure:"streets"`
	Boundaries string   `mapstructure:"boundaries"`
	NameFields []string `mapstructure:"name_fields"`
}

// OutputConfig controls the file publishers. Empty paths disable them.
type OutputConfig struct {
	GeoJSON  string `mapstructure:"geojson"`
	SplitDir string `mapstructure:"split_dir"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
	BodyLimitMB  int `mapstructure:"body_limit_mb"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Addr       string `mapstructure:"addr"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

// TemporalConfig enables running zone builds as a Temporal workflow.
type TemporalConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type MetricsConfig struct {
	PushURL string `mapstructure:"push_url"` // pushgateway for batch runs; empty disables
	Job     string `mapstructure:"job"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DebugConfig lists street and boundary names whose processing is logged step by step.
type DebugConfig struct {
	Names []string `mapstructure:"names"`
}

// Load reads configuration from file, environment variables and, when given, the flags
// named in FlagKeys.
func Load(service string, flags ...*pflag.FlagSet) (*Config, error) {
	// .env is optional and never overrides variables already set
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: ZONEBUF_SELECT_GROW → select.grow
	v.SetEnvPrefix("ZONEBUF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, fs := range flags {
		for name, key := range FlagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("reduce.tolerance", 0.0001)
	v.SetDefault("select.grow", 0.0003)
	v.SetDefault("select.shrink", 0.0001)
	v.SetDefault("select.min_length", 0.0006)
	v.SetDefault("select.patterns", []string{})
	v.SetDefault("buffer.width", 0.0001)
	v.SetDefault("buffer.quad_segs", 16)
	v.SetDefault("labels.unnamed", []string{"UNNAMED", "STATE HIGHWAY"})
	v.SetDefault("labels.ramp", " RAMP")
	v.SetDefault("labels.excluded", []string{"INTERSTATE"})
	v.SetDefault("input.streets", "")
	v.SetDefault("input.boundaries", "")
	v.SetDefault("input.name_fields", []string{"FN_DISP", "FULLNAME"})
	v.SetDefault("output.geojson", "")
	v.SetDefault("output.split_dir", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.body_limit_mb", 64)
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "zonebuf")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "zonebuf")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.enabled", false)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.ttl_seconds", 86400)
	v.SetDefault("temporal.enabled", false)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "zonebuf-zones")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("metrics.push_url", "")
	v.SetDefault("metrics.job", service)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("debug.names", []string{})
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Reduce.Tolerance <= 0 {
		errs = append(errs, fmt.Sprintf("reduce.tolerance must be positive, got %v", c.Reduce.Tolerance))
	}
	if c.Select.Grow <= 0 {
		errs = append(errs, fmt.Sprintf("select.grow must be positive, got %v", c.Select.Grow))
	}
	if c.Select.Shrink < 0 || c.Select.Shrink >= c.Select.Grow {
		errs = append(errs, fmt.Sprintf("select.shrink must be in [0, select.grow), got %v", c.Select.Shrink))
	}
	if c.Select.MinLength < 0 {
		errs = append(errs, "select.min_length must not be negative")
	}
	if c.Buffer.Width <= 0 {
		errs = append(errs, fmt.Sprintf("buffer.width must be positive, got %v", c.Buffer.Width))
	}
	if c.Buffer.QuadSegs < 1 {
		errs = append(errs, "buffer.quad_segs must be at least 1")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Database.Enabled {
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Enabled && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Temporal.Enabled && (c.Temporal.HostPort == "" || c.Temporal.TaskQueue == "") {
		errs = append(errs, "temporal.host_port and temporal.task_queue are required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

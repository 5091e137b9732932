// Package config loads the controller configuration from configs/config.yml, an optional .env
// file, TERRARIUM_* environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"terrarium_control/internal/control"
	"terrarium_control/internal/light"
	"terrarium_control/internal/logger"
	"terrarium_control/internal/mirror"
	"terrarium_control/internal/models"
	"terrarium_control/internal/mqtt"
	"terrarium_control/internal/overheat"
)

// EnvPrefix prefixes every environment override, e.g. TERRARIUM_CONTROL_TICK=2s.
const EnvPrefix = "TERRARIUM"

// Hardware drivers.
const (
	DriverSim  = "sim"
	DriverMQTT = "mqtt"
)

// Anchor sources.
const (
	AnchorsFixed = "fixed"
	AnchorsSolar = "solar"
)

type Config struct {
	HTTP     HTTPConfig      `mapstructure:"http"`
	Log      LogConfig       `mapstructure:"log"`
	DB       DBConfig        `mapstructure:"db"`
	Auth     AuthConfig      `mapstructure:"auth"`
	Control  ControlConfig   `mapstructure:"control"`
	Overheat overheat.Config `mapstructure:"overheat"`
	Light    LightConfig     `mapstructure:"light"`
	Defaults DefaultsConfig  `mapstructure:"defaults"`
	Hardware HardwareConfig  `mapstructure:"hardware"`
	MQTT     mqtt.Config     `mapstructure:"mqtt"`
	Redis    RedisConfig     `mapstructure:"redis"`
	Mirror   MirrorConfig    `mapstructure:"mirror"`
	History  HistoryConfig   `mapstructure:"history"`
}

type HTTPConfig struct {
	Port              string        `mapstructure:"port"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	SigningKey  string        `mapstructure:"signing_key"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
	AllowSignUp bool          `mapstructure:"allow_sign_up"`
}

type ControlConfig struct {
	Tick            time.Duration `mapstructure:"tick"`
	SensorTimeout   time.Duration `mapstructure:"sensor_timeout"`
	StaleAfter      time.Duration `mapstructure:"stale_after"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	WriteRetries    int           `mapstructure:"write_retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	QueueSize       int           `mapstructure:"queue_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// Timezone is an IANA name; empty means the host's local zone.
	Timezone string `mapstructure:"timezone"`
}

type LightConfig struct {
	AnchorSource string        `mapstructure:"anchor_source"`
	Anchors      light.Anchors `mapstructure:"anchors"`
	Latitude     float64       `mapstructure:"latitude"`
	Longitude    float64       `mapstructure:"longitude"`
}

// ScheduleDefaults seed every week of an empty schedule table.
type ScheduleDefaults struct {
	UV1Start  string       `mapstructure:"uv1_start"`
	UV1End    string       `mapstructure:"uv1_end"`
	UV2Start  string       `mapstructure:"uv2_start"`
	UV2End    string       `mapstructure:"uv2_end"`
	HeatStart string       `mapstructure:"heat_start"`
	HeatEnd   string       `mapstructure:"heat_end"`
	LED       models.RGBWW `mapstructure:"led"`
}

type DefaultsConfig struct {
	Schedule ScheduleDefaults `mapstructure:"schedule"`
	Presets  models.Presets   `mapstructure:"presets"`
	LED      LEDDefaults      `mapstructure:"led"`
}

// LEDDefaults apply when no LED settings have been stored yet.
type LEDDefaults struct {
	Power        bool    `mapstructure:"power"`
	Mode         string  `mapstructure:"mode"`
	SeasonWeight float64 `mapstructure:"season_weight"`
}

type HardwareConfig struct {
	Driver string `mapstructure:"driver"`
	// SensorMaxAge is how old the newest MQTT reading may be before reads fail.
	SensorMaxAge time.Duration `mapstructure:"sensor_max_age"`
}

type RedisConfig struct {
	Enabled            bool `mapstructure:"enabled"`
	mirror.RedisConfig `mapstructure:",squash"`
}

type MirrorConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
	MQTT     bool          `mapstructure:"mqtt"`
}

type HistoryConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	Retention      time.Duration `mapstructure:"retention"`
	BaskingHighC   float64       `mapstructure:"basking_high_c"`
	Basking2HighC  float64       `mapstructure:"basking2_high_c"`
	HumidityLowPct float64       `mapstructure:"humidity_low_pct"`
}

// Load parses args (without the program name) and builds the configuration.
func Load(args []string) (*Config, error) {
	flags := pflag.NewFlagSet("terrarium", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to config file (default configs/config.yml)")
	envFile := flags.String("env-file", ".env", "optional dotenv file loaded before reading the environment")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("port", "", "HTTP port")
	flags.String("hardware", "", "hardware driver (sim, mqtt)")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", *envFile, err)
	}

	v := viper.New()
	setDefaults(v)
	if *configPath != "" {
		v.SetConfigFile(*configPath)
	} else {
		v.AddConfigPath("configs")
		v.SetConfigName("config")
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, flag := range map[string]string{"log.level": "log-level", "http.port": "port", "hardware.driver": "hardware"} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the whole configuration. Any error is fatal at startup.
func (c *Config) Validate() error {
	if c.HTTP.Port == "" {
		return errors.New("http.port is required")
	}
	switch c.Log.Format {
	case logger.FormatConsole, logger.FormatJSON:
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	if c.DB.Path == "" {
		return errors.New("db.path is required")
	}
	if c.Auth.SigningKey == "" {
		return errors.New("auth.signing_key is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be > 0")
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	lc, err := c.LoopConfig()
	if err != nil {
		return err
	}
	if err := lc.Validate(); err != nil {
		return err
	}

	switch c.Light.AnchorSource {
	case AnchorsFixed, AnchorsSolar:
	default:
		return fmt.Errorf("light.anchor_source must be fixed or solar, got %q", c.Light.AnchorSource)
	}
	if err := c.Light.Anchors.Validate(); err != nil {
		return fmt.Errorf("light.anchors: %w", err)
	}
	if c.Light.Latitude < -90 || c.Light.Latitude > 90 || c.Light.Longitude < -180 || c.Light.Longitude > 180 {
		return errors.New("light.latitude/longitude out of range")
	}

	if _, err := c.ScheduleSeed(); err != nil {
		return fmt.Errorf("defaults.schedule: %w", err)
	}
	if err := c.Defaults.Presets.Validate(); err != nil {
		return fmt.Errorf("defaults.presets: %w", err)
	}
	if _, err := c.InitialLEDState(); err != nil {
		return fmt.Errorf("defaults.led: %w", err)
	}

	switch c.Hardware.Driver {
	case DriverSim:
	case DriverMQTT:
		if err := c.MQTT.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("hardware.driver must be sim or mqtt, got %q", c.Hardware.Driver)
	}
	if c.Mirror.MQTT {
		if err := c.MQTT.Validate(); err != nil {
			return err
		}
	}
	if c.Redis.Enabled && (c.Redis.Addr == "" || c.Redis.Key == "") {
		return errors.New("redis.addr and redis.key are required when redis is enabled")
	}
	if (c.Redis.Enabled || c.Mirror.MQTT) && (c.Mirror.Interval <= 0 || c.Mirror.Timeout <= 0) {
		return errors.New("mirror.interval and mirror.timeout must be > 0")
	}
	if c.History.Interval <= 0 {
		return errors.New("history.interval must be > 0")
	}
	return nil
}

// Location resolves control.timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Control.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Control.Timezone)
	if err != nil {
		return nil, fmt.Errorf("control.timezone: %w", err)
	}
	return loc, nil
}

// LoopConfig maps the control and overheat sections to the loop settings.
func (c *Config) LoopConfig() (control.Config, error) {
	loc, err := c.Location()
	if err != nil {
		return control.Config{}, err
	}
	return control.Config{
		Tick:            c.Control.Tick,
		SensorTimeout:   c.Control.SensorTimeout,
		StaleAfter:      c.Control.StaleAfter,
		WriteTimeout:    c.Control.WriteTimeout,
		WriteRetries:    c.Control.WriteRetries,
		RetryBackoff:    c.Control.RetryBackoff,
		QueueSize:       c.Control.QueueSize,
		ShutdownTimeout: c.Control.ShutdownTimeout,
		Location:        loc,
		Overheat:        c.Overheat,
	}, nil
}

// ScheduleSeed builds the record used to seed an empty schedule table. Week is left zero.
func (c *Config) ScheduleSeed() (models.WeekSchedule, error) {
	d := c.Defaults.Schedule
	var ws models.WeekSchedule
	for _, f := range []struct {
		name string
		in   string
		out  *models.TimeOfDay
	}{
		{"uv1Start", d.UV1Start, &ws.UV1.Start},
		{"uv1End", d.UV1End, &ws.UV1.End},
		{"uv2Start", d.UV2Start, &ws.UV2.Start},
		{"uv2End", d.UV2End, &ws.UV2.End},
		{"heatStart", d.HeatStart, &ws.Heat.Start},
		{"heatEnd", d.HeatEnd, &ws.Heat.End},
	} {
		t, err := models.ParseTimeOfDay(f.in)
		if err != nil {
			return models.WeekSchedule{}, models.Invalid(f.name, "%v", err)
		}
		*f.out = t
	}
	ws.LEDTarget = d.LED

	check := ws
	check.Week = models.FirstWeek
	if err := check.Validate(); err != nil {
		return models.WeekSchedule{}, err
	}
	return ws, nil
}

// InitialLEDState is the LED state used before any has been stored.
func (c *Config) InitialLEDState() (models.LEDState, error) {
	mode, err := models.ParseMode(c.Defaults.LED.Mode)
	if err != nil {
		return models.LEDState{}, err
	}
	if err := models.ValidateSeasonWeight(c.Defaults.LED.SeasonWeight); err != nil {
		return models.LEDState{}, err
	}
	return models.LEDState{
		Power:        c.Defaults.LED.Power,
		Mode:         mode,
		SeasonWeight: c.Defaults.LED.SeasonWeight,
	}, nil
}

// AnchorSource builds the configured anchor source.
func (c *Config) AnchorSource() light.AnchorSource {
	if c.Light.AnchorSource == AnchorsSolar {
		return light.NewSolar(c.Light.Latitude, c.Light.Longitude, c.Light.Anchors)
	}
	return light.Fixed(c.Light.Anchors)
}

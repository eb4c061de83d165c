package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/buckleypaul/serialplot/internal/serial"
)

const (
	DefaultBaudRate      = 9600
	DefaultReadTimeoutMS = 50
	DefaultActiveDelayMS = 1
	DefaultIdleDelayMS   = 100
	DefaultSendTimeoutMS = 2000
	DefaultMaxLogLines   = 5000
	DefaultPlotWindow    = 120
	DefaultLogLevel      = "info"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "SERIALPLOT_"

	dirName = ".serialplot"
)

// Config holds all serialplot configuration.
type Config struct {
	SerialPort     string `json:"serial_port,omitempty" yaml:"serial_port,omitempty"`
	SerialBaudRate int    `json:"serial_baud_rate,omitempty" yaml:"serial_baud_rate,omitempty"`
	DataBits       int    `json:"data_bits,omitempty" yaml:"data_bits,omitempty"`
	StopBits       int    `json:"stop_bits,omitempty" yaml:"stop_bits,omitempty"`
	Parity         string `json:"parity,omitempty" yaml:"parity,omitempty"`

	ReadTimeoutMS int  `json:"read_timeout_ms,omitempty" yaml:"read_timeout_ms,omitempty"`
	ActiveDelayMS int  `json:"active_delay_ms,omitempty" yaml:"active_delay_ms,omitempty"`
	IdleDelayMS   int  `json:"idle_delay_ms,omitempty" yaml:"idle_delay_ms,omitempty"`
	SendTimeoutMS int  `json:"send_timeout_ms,omitempty" yaml:"send_timeout_ms,omitempty"`
	AppendNewline bool `json:"append_newline" yaml:"append_newline"`

	FullLog     bool `json:"full_log" yaml:"full_log"`
	MaxLogLines int  `json:"max_log_lines,omitempty" yaml:"max_log_lines,omitempty"`

	PlotWindow int     `json:"plot_window,omitempty" yaml:"plot_window,omitempty"`
	AutoScaleY bool    `json:"auto_scale_y" yaml:"auto_scale_y"`
	YMin       float64 `json:"y_min" yaml:"y_min"`
	YMax       float64 `json:"y_max" yaml:"y_max"`

	HTTPAddr string `json:"http_addr,omitempty" yaml:"http_addr,omitempty"`
	LogFile  string `json:"log_file,omitempty" yaml:"log_file,omitempty"`
	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		SerialBaudRate: DefaultBaudRate,
		DataBits:       8,
		StopBits:       1,
		Parity:         "none",
		ReadTimeoutMS:  DefaultReadTimeoutMS,
		ActiveDelayMS:  DefaultActiveDelayMS,
		IdleDelayMS:    DefaultIdleDelayMS,
		SendTimeoutMS:  DefaultSendTimeoutMS,
		MaxLogLines:    DefaultMaxLogLines,
		PlotWindow:     DefaultPlotWindow,
		AutoScaleY:     true,
		LogLevel:       DefaultLogLevel,
	}
}

// Load reads and merges every configuration layer.
// Order: defaults → global (~/.config/serialplot) → local (.serialplot/) → environment.
// Within a directory config.yaml is read before config.json so that Save wins.
func Load(localRoot string) Config {
	cfg := Defaults()

	if home, err := os.UserHomeDir(); err == nil {
		mergeDir(&cfg, filepath.Join(home, ".config", "serialplot"))
	}

	if localRoot != "" {
		mergeDir(&cfg, filepath.Join(localRoot, dirName))
		_ = godotenv.Load(filepath.Join(localRoot, ".env"))
	}

	applyEnv(&cfg)
	cfg.normalize()
	return cfg
}

// Save writes the config to the local .serialplot/config.json by default,
// or to the global config if global is true.
func Save(cfg Config, localRoot string, global bool) error {
	var dir string
	if global {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		dir = filepath.Join(home, ".config", "serialplot")
	} else {
		dir = filepath.Join(localRoot, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0o644)
}

// PortOptions returns the serial framing described by the config.
func (c Config) PortOptions() (serial.PortOptions, error) {
	return serial.PortOptions{
		BaudRate: c.SerialBaudRate,
		DataBits: c.DataBits,
		StopBits: c.StopBits,
		Parity:   c.Parity,
	}.Normalize()
}

func (c Config) ReadTimeout() time.Duration { return ms(c.ReadTimeoutMS) }
func (c Config) ActiveDelay() time.Duration { return ms(c.ActiveDelayMS) }
func (c Config) IdleDelay() time.Duration   { return ms(c.IdleDelayMS) }
func (c Config) SendTimeout() time.Duration { return ms(c.SendTimeoutMS) }

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func (c *Config) normalize() {
	d := Defaults()
	if c.SerialBaudRate <= 0 {
		c.SerialBaudRate = d.SerialBaudRate
	}
	if c.ReadTimeoutMS <= 0 {
		c.ReadTimeoutMS = d.ReadTimeoutMS
	}
	if c.ActiveDelayMS <= 0 {
		c.ActiveDelayMS = d.ActiveDelayMS
	}
	if c.IdleDelayMS <= 0 {
		c.IdleDelayMS = d.IdleDelayMS
	}
	if c.SendTimeoutMS <= 0 {
		c.SendTimeoutMS = d.SendTimeoutMS
	}
	if c.MaxLogLines <= 0 {
		c.MaxLogLines = d.MaxLogLines
	}
	if c.PlotWindow <= 0 {
		c.PlotWindow = d.PlotWindow
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

func mergeDir(cfg *Config, dir string) {
	mergeFromFile(cfg, filepath.Join(dir, "config.yaml"), yaml.Unmarshal)
	mergeFromFile(cfg, filepath.Join(dir, "config.json"), json.Unmarshal)
}

// mergeFromFile decodes path on top of cfg. Fields absent from the file
// keep their current value; an unreadable or malformed file is ignored.
func mergeFromFile(cfg *Config, path string, unmarshal func([]byte, any) error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	merged := *cfg
	if err := unmarshal(data, &merged); err != nil {
		return
	}
	*cfg = merged
}

func applyEnv(cfg *Config) {
	cfg.SerialPort = getEnv("PORT", cfg.SerialPort)
	cfg.SerialBaudRate = getEnvAsInt("BAUD_RATE", cfg.SerialBaudRate)
	cfg.DataBits = getEnvAsInt("DATA_BITS", cfg.DataBits)
	cfg.StopBits = getEnvAsInt("STOP_BITS", cfg.StopBits)
	cfg.Parity = getEnv("PARITY", cfg.Parity)
	cfg.ReadTimeoutMS = getEnvAsInt("READ_TIMEOUT_MS", cfg.ReadTimeoutMS)
	cfg.ActiveDelayMS = getEnvAsInt("ACTIVE_DELAY_MS", cfg.ActiveDelayMS)
	cfg.IdleDelayMS = getEnvAsInt("IDLE_DELAY_MS", cfg.IdleDelayMS)
	cfg.SendTimeoutMS = getEnvAsInt("SEND_TIMEOUT_MS", cfg.SendTimeoutMS)
	cfg.AppendNewline = getEnvAsBool("APPEND_NEWLINE", cfg.AppendNewline)
	cfg.FullLog = getEnvAsBool("FULL_LOG", cfg.FullLog)
	cfg.MaxLogLines = getEnvAsInt("MAX_LOG_LINES", cfg.MaxLogLines)
	cfg.PlotWindow = getEnvAsInt("PLOT_WINDOW", cfg.PlotWindow)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)
	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", cfg.LogLevel))
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(EnvPrefix + key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

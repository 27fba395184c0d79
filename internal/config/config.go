package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Remote   RemoteConfig   `mapstructure:"remote"`
	Hardware HardwareConfig `mapstructure:"hardware"`
	Audio    AudioConfig    `mapstructure:"audio"`
	Log      LogConfig      `mapstructure:"log"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console, json
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// RemoteConfig points at the controller service that owns records, messages
// and the ring configuration.
type RemoteConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	SocketURL      string        `mapstructure:"socket_url"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
	HTTPTimeout    time.Duration `mapstructure:"http_timeout"`
}

// HardwareConfig selects the line driver and its GPIO offsets (BCM numbering).
type HardwareConfig struct {
	Driver     string `mapstructure:"driver"` // gpiocdev, sim
	Chip       string `mapstructure:"chip"`
	LAUpper    int    `mapstructure:"la_upper"`
	LALower    int    `mapstructure:"la_lower"`
	RingRelay  int    `mapstructure:"ring_relay"`
	OnHookLED  int    `mapstructure:"on_hook_led"`
	OffHookLED int    `mapstructure:"off_hook_led"`
}

type AudioConfig struct {
	Device    string `mapstructure:"device"`
	RecordCmd string `mapstructure:"record_cmd"`
	PlayCmd   string `mapstructure:"play_cmd"`
	WorkDir   string `mapstructure:"work_dir"`
}

var AppConfig Config

func LoadConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Config file not found, using defaults. Error: %v", err)
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	AppConfig.applyFallbacks()

	log.Println("Configuration loaded successfully")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8090")
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("remote.base_url", "http://localhost:8080")
	v.SetDefault("remote.socket_url", "ws://localhost:8080/socket")
	v.SetDefault("remote.reconnect_delay", "5s")
	v.SetDefault("remote.http_timeout", "10s")
	v.SetDefault("hardware.driver", "gpiocdev")
	v.SetDefault("hardware.chip", "gpiochip0")
	v.SetDefault("hardware.la_upper", 5)
	v.SetDefault("hardware.la_lower", 6)
	v.SetDefault("hardware.ring_relay", 12)
	v.SetDefault("hardware.on_hook_led", 8)
	v.SetDefault("hardware.off_hook_led", 7)
	v.SetDefault("audio.device", "plughw:0")
	v.SetDefault("audio.record_cmd", "arecord")
	v.SetDefault("audio.play_cmd", "aplay")
	v.SetDefault("audio.work_dir", ".")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// applyFallbacks repairs values an operator zeroed out explicitly.
func (c *Config) applyFallbacks() {
	if c.Remote.ReconnectDelay <= 0 {
		c.Remote.ReconnectDelay = 5 * time.Second
	}
	if c.Remote.HTTPTimeout <= 0 {
		c.Remote.HTTPTimeout = 10 * time.Second
	}
	if c.Server.Port == "" {
		c.Server.Port = ":8090"
	}
	if c.Audio.WorkDir == "" {
		c.Audio.WorkDir = "."
	}
	if c.Hardware.Chip == "" {
		c.Hardware.Chip = "gpiochip0"
	}
}

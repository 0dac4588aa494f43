package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode   string `mapstructure:"mode"`
	Port   int    `mapstructure:"port"`
	Secret string `mapstructure:"secret"`

	SignalURL string `mapstructure:"signal_url"`

	Room     string `mapstructure:"room"`
	UserID   string `mapstructure:"user_id"`
	UserName string `mapstructure:"user_name"`
	Role     int    `mapstructure:"role"`
	RoomType int    `mapstructure:"room_type"`

	TickInterval  time.Duration `mapstructure:"tick_interval"`
	HasCamera     bool          `mapstructure:"has_camera"`
	HasMicrophone bool          `mapstructure:"has_microphone"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("signal_url", "ws://localhost:9090/ws/room")
	v.SetDefault("room", "main")
	v.SetDefault("user_name", "guest")
	v.SetDefault("role", 0)
	v.SetDefault("room_type", 1)
	v.SetDefault("tick_interval", "1s")
	v.SetDefault("has_camera", true)
	v.SetDefault("has_microphone", true)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

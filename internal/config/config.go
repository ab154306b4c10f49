package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	PostgresConfig PostgresConfig `yaml:"postgres"`
	ServerConfig   ServerConfig   `yaml:"server"`
	AuthConfig     AuthConfig     `yaml:"auth"`
	RealtimeConfig RealtimeConfig `yaml:"realtime"`
}

type PostgresConfig struct {
	Host     string        `yaml:"host"`
	Port     string        `yaml:"port"`
	DBName   string        `yaml:"dbname"`
	User     string        `yaml:"user"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type RealtimeConfig struct {
	GatewayURL  string        `yaml:"gateway_url"`
	AppKey      string        `yaml:"app_key" env:"REALTIME_APP_KEY"`
	SendTimeout time.Duration `yaml:"send_timeout"`
}

func MustLoad() Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	var config Config
	err := cleanenv.ReadConfig(configPath, &config)
	if err != nil {
		log.Fatalf("config not read: %v", err)
	}
	return config
}

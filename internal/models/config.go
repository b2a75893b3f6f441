package models

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type (
	Config struct {
		ServerAddr        string   `env:"HTTP_ADDR" envDefault:":8000"`
		UploadDir         string   `env:"UPLOAD_DIR" envDefault:"images"`
		StaticDir         string   `env:"STATIC_DIR" envDefault:"web/static"`
		WebDir            string   `env:"WEB_DIR" envDefault:"web"`
		LogDir            string   `env:"LOG_DIR" envDefault:"logs"`
		MaxFileSize       int64    `env:"MAX_FILE_SIZE" envDefault:"5242880"`
		AllowedExtensions []string `env:"ALLOWED_EXTENSIONS" envSeparator:"," envDefault:".jpg,.jpeg,.png,.gif"`
		PageSize          int      `env:"PAGE_SIZE" envDefault:"10"`

		DB DBConfig `envPrefix:"DB_"`

		KafkaBroker string `env:"KAFKA_BROKER"`
		KafkaTopic  string `env:"KAFKA_TOPIC" envDefault:"image-events"`
	}

	DBConfig struct {
		Host            string        `env:"HOST" envDefault:"db"`
		Port            string        `env:"PORT" envDefault:"5432"`
		Name            string        `env:"NAME" envDefault:"images_db"`
		User            string        `env:"USER" envDefault:"postgres"`
		Password        string        `env:"PASSWORD" envDefault:"password"`
		ConnectAttempts int           `env:"CONNECT_ATTEMPTS" envDefault:"30"`
		ConnectDelay    time.Duration `env:"CONNECT_DELAY" envDefault:"2s"`
	}
)

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("models.LoadConfig: %v", err)
	}
	return cfg, nil
}

// DatabaseURL renders a pgx connection string from the DB_* settings.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

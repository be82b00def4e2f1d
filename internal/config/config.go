package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/oziev02/ImageGallery/internal/domain"
	"github.com/oziev02/ImageGallery/internal/gallery"
)

type Config struct {
	Server   ServerConfig   `envPrefix:"SERVER_"`
	Database DatabaseConfig `envPrefix:"DB_"`
	Kafka    KafkaConfig    `envPrefix:"KAFKA_"`
	Storage  StorageConfig  `envPrefix:"STORAGE_"`
	Gallery  GalleryConfig  `envPrefix:"GALLERY_"`
	Log      LogConfig      `envPrefix:"LOG_"`
}

type ServerConfig struct {
	Host         string        `env:"HOST" envDefault:"0.0.0.0"`
	Port         int           `env:"PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
}

type DatabaseConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"postgres"`
	Password string `env:"PASSWORD" envDefault:"postgres"`
	DBName   string `env:"NAME" envDefault:"gallery"`
	SSLMode  string `env:"SSLMODE" envDefault:"disable"`
}

// DSN returns the connection string in key/value form for pgx
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		quoteDSN(d.Host), d.Port, quoteDSN(d.User), quoteDSN(d.Password), quoteDSN(d.DBName), quoteDSN(d.SSLMode),
	)
}

// URL returns the connection string in URL form for migrate
func (d DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// quoteDSN quotes a key/value connection string value when it is empty or
// contains spaces, quotes or backslashes.
func quoteDSN(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

type KafkaConfig struct {
	Brokers       []string `env:"BROKERS" envDefault:"localhost:9092" envSeparator:","`
	EventsTopic   string   `env:"EVENTS_TOPIC" envDefault:"gallery-events"`
	ConsumerGroup string   `env:"CONSUMER_GROUP" envDefault:"gallery-state"`
}

type StorageConfig struct {
	BasePath string `env:"BASE_PATH" envDefault:"./outputs"`
}

// GalleryConfig holds pagination and the preferences a new session starts with
type GalleryConfig struct {
	PageSize                       int     `env:"PAGE_SIZE" envDefault:"20"`
	ShouldPinGallery               bool    `env:"PIN" envDefault:"true"`
	ShouldShowGallery              bool    `env:"SHOW" envDefault:"true"`
	ShouldHoldGalleryOpen          bool    `env:"HOLD_OPEN" envDefault:"false"`
	ShouldHoldSelectionOnNewImages bool    `env:"HOLD_SELECTION" envDefault:"false"`
	ImageMinimumWidth              int     `env:"IMAGE_MIN_WIDTH" envDefault:"64"`
	ImageObjectFit                 string  `env:"IMAGE_OBJECT_FIT" envDefault:"cover"`
	Width                          int     `env:"WIDTH" envDefault:"300"`
	ScrollPosition                 float64 `env:"SCROLL_POSITION" envDefault:"0"`
}

// Preferences converts the configured defaults. Call after Validate.
func (g GalleryConfig) Preferences() gallery.Preferences {
	return gallery.Preferences{
		ShouldPinGallery:               g.ShouldPinGallery,
		ShouldShowGallery:              g.ShouldShowGallery,
		ShouldHoldGalleryOpen:          g.ShouldHoldGalleryOpen,
		ShouldHoldSelectionOnNewImages: g.ShouldHoldSelectionOnNewImages,
		GalleryScrollPosition:          g.ScrollPosition,
		GalleryImageMinimumWidth:       g.ImageMinimumWidth,
		GalleryImageObjectFit:          domain.ObjectFit(g.ImageObjectFit),
		GalleryWidth:                   g.Width,
	}
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"text"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Storage.BasePath == "" {
		return fmt.Errorf("storage base path is required")
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required")
	}
	if c.Kafka.EventsTopic == "" {
		return fmt.Errorf("kafka events topic is required")
	}
	if c.Gallery.PageSize <= 0 {
		return fmt.Errorf("gallery page size must be positive")
	}
	if c.Gallery.ImageMinimumWidth <= 0 {
		return fmt.Errorf("gallery image minimum width must be positive")
	}
	if _, err := domain.ParseObjectFit(c.Gallery.ImageObjectFit); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// Package config carga la configuración de procesos desde variables de entorno.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server configura cmd/api.
type Server struct {
	Port         string        `env:"PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`

	// Vacío = in-memory.
	DBDSN string `env:"DB_DSN"`

	// Vacío = se genera un secreto efímero (los tokens mueren al reiniciar).
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"336h"`

	// DevAuth habilita X-Debug-User-ID en lugar de Bearer.
	DevAuth bool `env:"DEV_AUTH" envDefault:"false"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	OAuthStateTTL time.Duration `env:"OAUTH_STATE_TTL" envDefault:"10m"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`

	// Vacío = blobs en memoria.
	S3Bucket string `env:"S3_BUCKET"`
	S3Prefix string `env:"S3_PREFIX"`
	// S3Endpoint apunta a un S3 compatible (MinIO); fuerza path-style.
	S3Endpoint string `env:"S3_ENDPOINT"`
}

func (s Server) Addr() string {
	return ":" + strings.TrimPrefix(strings.TrimSpace(s.Port), ":")
}

func (s Server) GoogleEnabled() bool {
	return strings.TrimSpace(s.GoogleClientID) != "" && strings.TrimSpace(s.GoogleClientSecret) != ""
}

// LoadServer parsea y valida la config del servidor.
func LoadServer() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse server env: %w", err)
	}
	if cfg.TokenTTL <= 0 {
		return Server{}, fmt.Errorf("TOKEN_TTL must be positive")
	}
	if s := strings.TrimSpace(cfg.JWTSecret); s != "" && len(s) < 32 {
		return Server{}, fmt.Errorf("JWT_SECRET must be at least 32 bytes")
	}
	return cfg, nil
}

// Client configura cmd/taxipet.
type Client struct {
	APIURL      string        `env:"TAXIPET_API_URL" envDefault:"http://localhost:8080"`
	SessionFile string        `env:"TAXIPET_SESSION_FILE"`
	Timeout     time.Duration `env:"TAXIPET_TIMEOUT" envDefault:"15s"`
}

// LoadClient resuelve además la ruta por defecto del archivo de sesión.
func LoadClient() (Client, error) {
	var cfg Client
	if err := env.Parse(&cfg); err != nil {
		return Client{}, fmt.Errorf("parse client env: %w", err)
	}
	if strings.TrimSpace(cfg.SessionFile) == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return Client{}, fmt.Errorf("resolve config dir: %w", err)
		}
		cfg.SessionFile = filepath.Join(dir, "taxipet", "session.json")
	}
	return cfg, nil
}

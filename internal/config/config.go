// Package config loads server settings with priority: env > .env > file > defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendMemory    = "memory"
	BackendFirebase  = "firebase"
	BackendFirestore = "firestore"
	BackendMongo     = "mongo"
	BackendRedis     = "redis"
)

type Config struct {
	Port    string `yaml:"port"`
	GinMode string `yaml:"gin_mode"`

	IdentityBackend string `yaml:"identity_backend"`
	DocstoreBackend string `yaml:"docstore_backend"`
	SessionBackend  string `yaml:"session_backend"`

	// KeyData is the Firebase service-account JSON.
	KeyData           string `yaml:"key_data"`
	FirebaseProjectID string `yaml:"firebase_project_id"`
	FirebaseAPIKey    string `yaml:"firebase_api_key"`

	MongoURI string `yaml:"mongo_uri"`
	DBName   string `yaml:"db_name"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`

	SessionSecret string        `yaml:"session_secret"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	SecureCookies bool          `yaml:"secure_cookies"`

	// SignInRate and SignInBurst throttle failed sign-ins per email for the
	// in-memory identity backend.
	SignInRate  float64 `yaml:"signin_rate"`
	SignInBurst int     `yaml:"signin_burst"`
}

func Default() Config {
	return Config{
		Port:            "8080",
		GinMode:         "release",
		IdentityBackend: BackendMemory,
		DocstoreBackend: BackendMemory,
		SessionBackend:  BackendMemory,
		DBName:          "mintylist",
		RedisAddr:       "localhost:6379",
		SessionTTL:      24 * time.Hour,
		SignInRate:      0.2,
		SignInBurst:     5,
	}
}

// Load reads the optional YAML file at path, then the optional .env file at
// envFile, then the process environment. Missing files are not an error.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			slog.Info("No .env file found, relying on environment variables", "path", envFile)
		}
	}
	if err := loadEnv(&cfg); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks backend names and the settings each chosen backend needs.
func (c Config) Validate() error {
	var problems []error
	switch c.IdentityBackend {
	case BackendMemory:
	case BackendFirebase:
		if c.KeyData == "" {
			problems = append(problems, errors.New("KEY_DATA is required for the firebase identity backend"))
		}
		if c.FirebaseAPIKey == "" {
			problems = append(problems, errors.New("FIREBASE_API_KEY is required for the firebase identity backend"))
		}
	default:
		problems = append(problems, fmt.Errorf("unknown identity backend %q", c.IdentityBackend))
	}

	switch c.DocstoreBackend {
	case BackendMemory:
	case BackendFirestore:
		if c.KeyData == "" {
			problems = append(problems, errors.New("KEY_DATA is required for the firestore docstore backend"))
		}
	case BackendMongo:
		if c.MongoURI == "" {
			problems = append(problems, errors.New("MONGO_URI is required for the mongo docstore backend"))
		}
	default:
		problems = append(problems, fmt.Errorf("unknown docstore backend %q", c.DocstoreBackend))
	}

	switch c.SessionBackend {
	case BackendMemory, BackendRedis:
	default:
		problems = append(problems, fmt.Errorf("unknown session backend %q", c.SessionBackend))
	}

	if c.SessionTTL <= 0 {
		problems = append(problems, errors.New("SESSION_TTL must be positive"))
	}
	return errors.Join(problems...)
}

// NeedsFirebase reports whether any backend uses the Firebase app.
func (c Config) NeedsFirebase() bool {
	return c.IdentityBackend == BackendFirebase || c.DocstoreBackend == BackendFirestore
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) error {
	strs := map[string]*string{
		"PORT":                &cfg.Port,
		"GIN_MODE":            &cfg.GinMode,
		"IDENTITY_BACKEND":    &cfg.IdentityBackend,
		"DOCSTORE_BACKEND":    &cfg.DocstoreBackend,
		"SESSION_BACKEND":     &cfg.SessionBackend,
		"KEY_DATA":            &cfg.KeyData,
		"FIREBASE_PROJECT_ID": &cfg.FirebaseProjectID,
		"FIREBASE_API_KEY":    &cfg.FirebaseAPIKey,
		"MONGO_URI":           &cfg.MongoURI,
		"DB_NAME":             &cfg.DBName,
		"REDIS_ADDR":          &cfg.RedisAddr,
		"REDIS_PASSWORD":      &cfg.RedisPassword,
		"SESSION_SECRET":      &cfg.SessionSecret,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SESSION_TTL: %w", err)
		}
		cfg.SessionTTL = d
	}
	if v := os.Getenv("SECURE_COOKIES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SECURE_COOKIES: %w", err)
		}
		cfg.SecureCookies = b
	}
	if v := os.Getenv("SIGNIN_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SIGNIN_RATE: %w", err)
		}
		cfg.SignInRate = f
	}
	if v := os.Getenv("SIGNIN_BURST"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SIGNIN_BURST: %w", err)
		}
		cfg.SignInBurst = i
	}
	return nil
}

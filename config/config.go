package config

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

// defaultSecret is only accepted when running locally
const defaultSecret = "thisIsASecret"

// Config holds the project config values
type Config struct {
	Port    string `envconfig:"PORT" default:"3000"`
	BaseURL string `envconfig:"BASE_URL"`
	Env     string `envconfig:"ENV" default:"local"`

	DataDir string `envconfig:"DATA_DIR" default:".data"`
	LogDir  string `envconfig:"LOG_DIR" default:".logs"`
	LogName string `envconfig:"LOG_NAME" default:"access"`

	HashingSecret   string        `envconfig:"HASHING_SECRET"`
	MaxChecks       int           `envconfig:"MAX_CHECKS" default:"5"`
	TokenLifetime   time.Duration `envconfig:"TOKEN_LIFETIME" default:"1h"`
	TokenPurgeAfter time.Duration `envconfig:"TOKEN_PURGE_AFTER" default:"0"`

	LogRotateSchedule string `envconfig:"LOG_ROTATE_SCHEDULE" default:"@daily"`
	ReconcileSchedule string `envconfig:"RECONCILE_SCHEDULE" default:"@hourly"`

	RedisAddr  string        `envconfig:"REDIS_ADDR"`
	RateLimit  int           `envconfig:"RATE_LIMIT" default:"10"`
	RateWindow time.Duration `envconfig:"RATE_WINDOW" default:"1m"`

	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
}

// New sets up all config related services
func New() (*Config, error) {
	// a missing .env file is fine, the environment wins anyway
	_ = godotenv.Load()

	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}

	//setup zap logger and replace default logger
	logger, err := setLogger(c.Env)
	if err != nil {
		return nil, err
	}
	_ = zap.ReplaceGlobals(logger)

	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	if c.HashingSecret == "" {
		if c.Env != "local" {
			return errors.New("HASHING_SECRET must be set outside of the local environment")
		}
		zap.S().Warn("HASHING_SECRET is not set, using the local default")
		c.HashingSecret = defaultSecret
	}
	if c.MaxChecks < 1 {
		return errors.New("MAX_CHECKS must be at least 1")
	}
	if c.TokenLifetime <= 0 {
		return errors.New("TOKEN_LIFETIME must be positive")
	}
	return nil
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err. Only the message reaches the client.
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With("error", err).Error(message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	b, _ := json.Marshal(map[string]string{"Error": message})
	w.Write(b)
}

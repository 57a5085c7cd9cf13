package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ErrMissingJWTSettings is returned by Validate when token signing cannot be configured.
var ErrMissingJWTSettings = errors.New("JWT_KEY, JWT_ISSUER and JWT_AUDIENCE must be set")

// Config holds the application's configuration values.
type Config struct {
	AppName string `json:"appname"`
	AppEnv  string `json:"appenv"`
	AppPort uint16 `json:"appport"`
	GinMode string `json:"ginmode"`

	DBHost string `json:"dbhost"`
	DBPort uint16 `json:"dbport"`
	DBName string `json:"dbname"`
	DBUser string `json:"dbuser"`
	DBPass string `json:"-"`

	JWTKey      string `json:"-"`
	JWTIssuer   string `json:"jwt_issuer"`
	JWTAudience string `json:"jwt_audience"`
	BcryptCost  int    `json:"bcrypt_cost"`

	RedisEnabled  bool   `json:"redis_enabled"`
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"-"`
	RedisDB       int    `json:"redis_db"`

	GeoIPDBPath string `json:"geoip_db_path"`
	SeedFile    string `json:"seed_file"`
	LogLevel    string `json:"log_level"`
}

// LoadConfig reads the environment, pre-populated from a .env file when one exists.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg := &Config{
		AppName:       getEnv("APPNAME", "CRM"),
		AppEnv:        getEnv("APPENV", "development"),
		AppPort:       uint16(getEnvAsUint("APPPORT", 8080, 16)),
		GinMode:       getEnv("GINMODE", "debug"),
		DBHost:        getEnv("DBHOST", "localhost"),
		DBPort:        uint16(getEnvAsUint("DBPORT", 3306, 16)),
		DBName:        os.Getenv("DBNAME"),
		DBUser:        os.Getenv("DBUSER"),
		DBPass:        os.Getenv("DBPASS"),
		JWTKey:        os.Getenv("JWT_KEY"),
		JWTIssuer:     os.Getenv("JWT_ISSUER"),
		JWTAudience:   os.Getenv("JWT_AUDIENCE"),
		BcryptCost:    int(getEnvAsUint("BCRYPT_COST", 0, 8)),
		RedisEnabled:  getEnv("REDIS_ENABLED", "false") == "true",
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       int(getEnvAsUint("REDIS_DB", 0, 8)),
		GeoIPDBPath:   os.Getenv("GEOIP_DB_PATH"),
		SeedFile:      os.Getenv("SEED_FILE"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
	return cfg, nil
}

// Validate reports configuration the service must not start without.
func (c *Config) Validate() error {
	if c.JWTKey == "" || c.JWTIssuer == "" || c.JWTAudience == "" {
		return ErrMissingJWTSettings
	}
	return nil
}

// IsTest reports whether the service runs under APPENV=test.
func (c *Config) IsTest() bool {
	return c.AppEnv == "test"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsUint(key string, fallback uint64, bits int) uint64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseUint(raw, 10, bits)
	if err != nil {
		return fallback
	}
	return v
}

// ConnectDatabase opens MySQL, or an in-memory SQLite database under APPENV=test.
func ConnectDatabase(cfg *Config) (*gorm.DB, error) {
	if cfg.IsTest() {
		return gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{TranslateError: true})
	}

	// Build the Data Source Name (DSN) using the configuration values.
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4", cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	return db, nil
}

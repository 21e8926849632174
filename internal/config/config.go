package config // package config loads application configuration from environment variables

import (
	"fmt"     // fmt builds the MySQL DSN from its parts
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time parses durations such as the token TTL

	"github.com/go-sql-driver/mysql" // DSN parsing for DB_DSN
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Secrets (JWT and Discogs tokens) are required
// and the process refuses to start without them.
type Config struct {
	Env            string        // application environment (e.g. "dev", "prod")
	Port           string        // HTTP port to listen on
	DatabaseDSN    string        // full MySQL DSN, composed from DB_* parts when DB_DSN is unset
	AutoMigrate    bool          // apply the schema at startup
	JWTSecret      string        // secret used to sign session tokens
	TokenTTL       time.Duration // session token lifetime (one day by default)
	BcryptCost     int           // bcrypt cost for password hashing
	DiscogsToken   string        // personal access token for the Discogs API
	DiscogsBaseURL string        // Discogs API base URL
	DiscogsTimeout time.Duration // per-call timeout for catalog requests
	AMQPURL        string        // broker URL for admin audit events; empty disables publishing
	AuditLogPath   string        // file the audit consumer appends to
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            envStr("APP_ENV", "dev"),
		Port:           must("APP_PORT"),
		DatabaseDSN:    databaseDSN(),
		AutoMigrate:    envBool("DB_AUTO_MIGRATE", false),
		JWTSecret:      must("JWT_SECRET"),
		TokenTTL:       envDur("TOKEN_TTL", 24*time.Hour),
		BcryptCost:     envInt("BCRYPT_COST", 10),
		DiscogsToken:   must("DISCOGS_TOKEN"),
		DiscogsBaseURL: envStr("DISCOGS_BASE_URL", "https://api.discogs.com"),
		DiscogsTimeout: envDur("DISCOGS_TIMEOUT", 10*time.Second),
		AMQPURL:        amqpURL(),
		AuditLogPath:   envStr("AUDIT_LOG_PATH", "logs/admin-audit.log"),
	}
}

// LoadDatabase reads only the database settings.  The operator CLI uses it
// so that it can run without the HTTP and catalog secrets.
func LoadDatabase() string {
	return databaseDSN()
}

// IsDev reports whether the service runs in the development environment.
func (c Config) IsDev() bool {
	return c.Env == "dev"
}

// databaseDSN prefers DB_DSN and otherwise composes a DSN from the
// DB_USER, DB_PASS, DB_HOST, DB_PORT and DB_NAME variables.
func databaseDSN() string {
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		out, err := NormalizeDSN(dsn)
		if err != nil {
			log.Fatalf("invalid DB_DSN: %v", err)
		}
		return out
	}
	user := must("DB_USER")
	pass := os.Getenv("DB_PASS") // empty allowed
	host := must("DB_HOST")
	port := must("DB_PORT")
	name := must("DB_NAME")
	return BuildDSN(user, pass, host, port, name)
}

// BuildDSN assembles a go-sql-driver DSN.  parseTime=true maps DATETIME to
// time.Time and loc=UTC keeps timestamps consistent across hosts.
func BuildDSN(user, pass, host, port, name string) string {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)
}

// NormalizeDSN forces parseTime=true and a UTC location on an operator
// supplied DSN.  Timestamp columns are scanned into time.Time and fail
// without them.
func NormalizeDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

func amqpURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", k, v)
	}
	return n
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	dur, err := time.ParseDuration(v)
	if err != nil || dur <= 0 {
		log.Fatalf("invalid duration for %s: %q", k, v)
	}
	return dur
}

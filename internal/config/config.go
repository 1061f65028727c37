// Package config loads process settings from an optional .env file and the
// environment. Every variable is prefixed LABQMS_.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"labqms/internal/audit"
	"labqms/internal/blob"
	"labqms/internal/observability"
	"labqms/internal/report"
	"labqms/internal/status"
)

// DefaultTimezone is the laboratory's local zone; calendar-date checks use it.
const DefaultTimezone = "Asia/Taipei"

// DevJWTSecret is used when LABQMS_JWT_SECRET is unset. Load reports a warning
// when it is in effect.
const DevJWTSecret = "labqms-dev-secret-change-me"

type HTTPConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// ReportConfig configures the assistant. An empty endpoint disables it.
type ReportConfig struct {
	report.HTTPConfig
}

// Enabled reports whether an endpoint is configured.
func (r ReportConfig) Enabled() bool { return r.Endpoint != "" }

type Config struct {
	HTTP         HTTPConfig
	JWT          JWTConfig
	Log          observability.LogConfig
	Training     status.Requirements
	Audit        audit.Config
	Blob         blob.Config
	Report       ReportConfig
	Organization string
	Seed         bool
	// Location is the zone whose calendar date counts as "today".
	Location *time.Location

	// Warnings collects non-fatal problems found while loading.
	Warnings []string
}

// Load reads files (".env" when none given) and then the environment. A
// missing file is a warning; a malformed value is an error.
func Load(files ...string) (Config, error) {
	var warnings []string
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				warnings = append(warnings, fmt.Sprintf("%s not found; using environment only", f))
				continue
			}
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	cfg, err := FromEnv(os.LookupEnv)
	if err != nil {
		return Config{}, err
	}
	cfg.Warnings = append(warnings, cfg.Warnings...)
	return cfg, nil
}

// FromEnv builds a Config from lookup.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	e := env{lookup: lookup}
	cfg := Config{
		HTTP: HTTPConfig{
			Addr:            e.str("LABQMS_HTTP_ADDR", ":8080"),
			ShutdownTimeout: e.duration("LABQMS_HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		JWT: JWTConfig{
			Secret: e.str("LABQMS_JWT_SECRET", ""),
			TTL:    e.duration("LABQMS_JWT_TTL", 12*time.Hour),
		},
		Log: observability.LogConfig{
			Level:  e.str("LABQMS_LOG_LEVEL", "info"),
			Format: e.str("LABQMS_LOG_FORMAT", "console"),
		},
		Training: status.Requirements{
			Internal: e.decimal("LABQMS_TRAINING_INTERNAL_HOURS", status.DefaultRequirements().Internal),
			External: e.decimal("LABQMS_TRAINING_EXTERNAL_HOURS", status.DefaultRequirements().External),
		},
		Audit: audit.Config{
			Driver:      audit.Driver(strings.ToLower(e.str("LABQMS_AUDIT_DRIVER", string(audit.DriverSQLite)))),
			SQLitePath:  e.str("LABQMS_AUDIT_SQLITE_PATH", "labqms-journal.db"),
			PostgresDSN: e.str("LABQMS_AUDIT_POSTGRES_DSN", ""),
		},
		Blob: blob.Config{
			Driver: blob.Driver(strings.ToLower(e.str("LABQMS_BLOB_DRIVER", string(blob.DriverFilesystem)))),
			FSRoot: e.str("LABQMS_BLOB_FS_ROOT", "./archive"),
			S3: blob.S3Config{
				Bucket:          e.str("LABQMS_BLOB_S3_BUCKET", ""),
				Region:          e.str("LABQMS_BLOB_S3_REGION", "us-east-1"),
				Endpoint:        e.str("LABQMS_BLOB_S3_ENDPOINT", ""),
				AccessKeyID:     e.str("LABQMS_BLOB_S3_ACCESS_KEY_ID", ""),
				SecretAccessKey: e.str("LABQMS_BLOB_S3_SECRET_ACCESS_KEY", ""),
				PathStyle:       e.boolean("LABQMS_BLOB_S3_PATH_STYLE", false),
			},
		},
		Report: ReportConfig{report.HTTPConfig{
			Endpoint: e.str("LABQMS_REPORT_ENDPOINT", ""),
			APIKey:   e.str("LABQMS_REPORT_API_KEY", ""),
			Timeout:  e.duration("LABQMS_REPORT_TIMEOUT", 30*time.Second),
		}},
		Organization: e.str("LABQMS_ORGANIZATION", ""),
		Seed:         e.boolean("LABQMS_SEED", true),
		Location:     e.location("LABQMS_TIMEZONE", DefaultTimezone),
	}
	if err := errors.Join(e.errs...); err != nil {
		return Config{}, err
	}
	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = DevJWTSecret
		cfg.Warnings = append(cfg.Warnings, "LABQMS_JWT_SECRET not set; using development secret")
	}
	if cfg.Training.Internal.IsNegative() || cfg.Training.External.IsNegative() {
		return Config{}, errors.New("training hour requirements must not be negative")
	}
	if cfg.JWT.TTL <= 0 {
		return Config{}, errors.New("LABQMS_JWT_TTL must be positive")
	}
	return cfg, nil
}

type env struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *env) str(key, def string) string {
	if v, ok := e.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (e *env) location(key, def string) *time.Location {
	loc, err := time.LoadLocation(e.str(key, def))
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return time.UTC
	}
	return loc
}

func (e *env) boolean(key string, def bool) bool {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (e *env) decimal(key string, def decimal.Decimal) decimal.Decimal {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

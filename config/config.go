package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	HTTPPort string `envconfig:"HTTP_PORT" default:"4242"`

	// Institutionelle API
	FacultyAPIURL       string        `envconfig:"FACULTY_API_URL" default:"https://api.hanyang.ac.kr/rs/huas/findGwInfoForAACSB.json"`
	ResearchAPIURL      string        `envconfig:"RESEARCH_API_URL" default:"https://api.hanyang.ac.kr/rs/research/ygsj/findYgsjForAACSB.json"`
	APIClientID         string        `envconfig:"API_CLIENT_ID"`
	APISwapKey          string        `envconfig:"API_SWAP_KEY"`
	FacultyRemoteToken  string        `envconfig:"FACULTY_REMOTE_TOKEN"`
	ResearchRemoteToken string        `envconfig:"RESEARCH_REMOTE_TOKEN"`
	APITimeout          time.Duration `envconfig:"API_TIMEOUT" default:"60s"`

	// Geschäftsregeln
	AccreditedCollege              string `envconfig:"ACCREDITED_COLLEGE" default:"경상대학"`
	ExcludedJobType                string `envconfig:"EXCLUDED_JOB_TYPE" default:"장학조교"`
	InstitutionName                string `envconfig:"INSTITUTION_NAME" default:"한양대학교"`
	NonMatchedExcludedDepartments  string `envconfig:"NON_MATCHED_EXCLUDED_DEPARTMENTS" default:"경제학부"`
	SourceTimezone                 string `envconfig:"SOURCE_TIMEZONE" default:"Asia/Seoul"`
	ReportWindowYears              int    `envconfig:"REPORT_WINDOW_YEARS" default:"5"`
	FacultyMissingTimestampPolicy  string `envconfig:"FACULTY_MISSING_TIMESTAMP" default:"newer"`
	ResearchMissingTimestampPolicy string `envconfig:"RESEARCH_MISSING_TIMESTAMP" default:"now"`

	SyncCronSchedule string `envconfig:"SYNC_CRON_SCHEDULE" default:"0 3 * * *"`

	// Archiv für Importdateien; leerer Bucket deaktiviert die Archivierung.
	ArchiveS3URL    string `envconfig:"ARCHIVE_S3_URL"`
	ArchiveS3Region string `envconfig:"ARCHIVE_S3_REGION" default:"us-east-1"`
	ArchiveS3Key    string `envconfig:"ARCHIVE_S3_KEY"`
	ArchiveS3Secret string `envconfig:"ARCHIVE_S3_SECRET"`
	ArchiveS3Bucket string `envconfig:"ARCHIVE_S3_BUCKET"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// Location lädt die Zeitzone, in der die Quellen ihre Zeitstempel liefern.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.SourceTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid SOURCE_TIMEZONE %q: %w", c.SourceTimezone, err)
	}
	return loc, nil
}

// ExcludedDepartments liefert die kommaseparierte Liste als Slice.
func (c *Config) ExcludedDepartments() []string {
	var out []string
	for _, d := range strings.Split(c.NonMatchedExcludedDepartments, ",") {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}

// ArchiveEnabled meldet, ob Importdateien nach S3 archiviert werden.
func (c *Config) ArchiveEnabled() bool {
	return c.ArchiveS3Bucket != ""
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}

// Package config loads dicombids settings from an optional config file,
// DICOMBIDS_ environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable. Nested keys use "__" in
// place of ".", so export.file_timeout is DICOMBIDS_EXPORT__FILE_TIMEOUT.
const EnvPrefix = "DICOMBIDS"

// Publisher kinds.
const (
	PublishNone  = "none"
	PublishLocal = "local"
	PublishMinIO = "minio"
)

// Config is the full application configuration.
type Config struct {
	Env       string
	Export    ExportConfig
	Converter ConverterConfig
	Anonymize AnonymizeConfig
	Server    ServerConfig
	Publish   PublishConfig
}

// ExportConfig configures the dataset assembler.
type ExportConfig struct {
	ScratchDir  string
	FileTimeout time.Duration
	Dataset     DatasetConfig
}

// DatasetConfig overrides fields of dataset_description.json.
type DatasetConfig struct {
	Name    string
	Authors []string
	License string
}

// ConverterConfig configures the external volume converter.
type ConverterConfig struct {
	Command string
	Args    []string
	Enabled bool
}

// AnonymizeConfig lists fields anonymized on top of the defaults.
type AnonymizeConfig struct {
	ExtraFields []string
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr        string
	DataRoot    string
	MaxUploadMB int64
	CORSOrigins []string
}

// PublishConfig selects where finished archives are uploaded.
type PublishConfig struct {
	Kind  string
	Dir   string
	MinIO MinIOConfig
}

// MinIOConfig holds the S3-compatible endpoint settings.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	Secure    bool
}

var defaults = map[string]any{
	"workspace.env":            "PRODUCTION",
	"export.scratch_dir":       "",
	"export.file_timeout":      "2m",
	"export.dataset.name":      "My Dataset",
	"export.dataset.authors":   []string{"DICOM HUB User"},
	"export.dataset.license":   "CC-BY-4.0",
	"converter.command":        "dcm2niix",
	"converter.args":           []string{},
	"converter.enabled":        true,
	"anonymize.extra_fields":   []string{},
	"server.addr":              ":8080",
	"server.data_root":         "",
	"server.max_upload_mb":     512,
	"server.cors_origins":      []string{},
	"publish.kind":             PublishNone,
	"publish.dir":              "",
	"publish.minio.endpoint":   "",
	"publish.minio.access_key": "",
	"publish.minio.secret_key": "",
	"publish.minio.bucket":     "bids-exports",
	"publish.minio.prefix":     "exports",
	"publish.minio.secure":     false,
}

// Load reads configFile when it is not empty, then applies environment
// overrides and defaults.
func Load(configFile string) (*Config, error) {
	v := newViper()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	timeout, err := parseDuration(v.GetString("export.file_timeout"))
	if err != nil {
		return nil, fmt.Errorf("export.file_timeout: %w", err)
	}

	cfg := &Config{
		Env: strings.ToUpper(strings.TrimSpace(v.GetString("workspace.env"))),
		Export: ExportConfig{
			ScratchDir:  v.GetString("export.scratch_dir"),
			FileTimeout: timeout,
			Dataset: DatasetConfig{
				Name:    v.GetString("export.dataset.name"),
				Authors: stringSlice(v, "export.dataset.authors"),
				License: v.GetString("export.dataset.license"),
			},
		},
		Converter: ConverterConfig{
			Command: v.GetString("converter.command"),
			Args:    stringSlice(v, "converter.args"),
			Enabled: v.GetBool("converter.enabled"),
		},
		Anonymize: AnonymizeConfig{
			ExtraFields: stringSlice(v, "anonymize.extra_fields"),
		},
		Server: ServerConfig{
			Addr:        v.GetString("server.addr"),
			DataRoot:    v.GetString("server.data_root"),
			MaxUploadMB: v.GetInt64("server.max_upload_mb"),
			CORSOrigins: stringSlice(v, "server.cors_origins"),
		},
		Publish: PublishConfig{
			Kind: strings.ToLower(strings.TrimSpace(v.GetString("publish.kind"))),
			Dir:  v.GetString("publish.dir"),
			MinIO: MinIOConfig{
				Endpoint:  v.GetString("publish.minio.endpoint"),
				AccessKey: v.GetString("publish.minio.access_key"),
				SecretKey: v.GetString("publish.minio.secret_key"),
				Bucket:    v.GetString("publish.minio.bucket"),
				Prefix:    v.GetString("publish.minio.prefix"),
				Secure:    v.GetBool("publish.minio.secure"),
			},
		},
	}
	return cfg, nil
}

// parseDuration accepts Go durations ("90s") and bare seconds ("90").
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return 0, fmt.Errorf("invalid duration %q", s)
}

// stringSlice reads a list key. Environment values are comma-separated.
func stringSlice(v *viper.Viper, key string) []string {
	var out []string
	for _, item := range v.GetStringSlice(key) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks the configuration for values no component can work with.
func (c *Config) Validate() error {
	var errs []error

	if c.Export.FileTimeout <= 0 {
		errs = append(errs, fmt.Errorf("export.file_timeout must be positive, got %s", c.Export.FileTimeout))
	}
	if c.Export.ScratchDir != "" {
		if info, err := os.Stat(c.Export.ScratchDir); err != nil || !info.IsDir() {
			errs = append(errs, fmt.Errorf("export.scratch_dir %q is not a directory", c.Export.ScratchDir))
		}
	}
	if c.Converter.Enabled && strings.TrimSpace(c.Converter.Command) == "" {
		errs = append(errs, errors.New("converter.command is required when the converter is enabled"))
	}
	if c.Server.MaxUploadMB <= 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB))
	}

	switch c.Publish.Kind {
	case PublishNone, "":
	case PublishLocal:
		if c.Publish.Dir == "" {
			errs = append(errs, errors.New("publish.dir is required for the local publisher"))
		}
	case PublishMinIO:
		if c.Publish.MinIO.Endpoint == "" {
			errs = append(errs, errors.New("publish.minio.endpoint is required for the minio publisher"))
		}
		if c.Publish.MinIO.Bucket == "" {
			errs = append(errs, errors.New("publish.minio.bucket is required for the minio publisher"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown publish.kind %q, valid kinds: %s, %s, %s",
			c.Publish.Kind, PublishNone, PublishLocal, PublishMinIO))
	}

	return errors.Join(errs...)
}

// IsDevelopment reports whether the development logger should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env == "DEVELOPMENT"
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"timesheets/internal/log"
)

// Backends
const (
	BackendSheets = "sheets"
	BackendMemory = "memory"
)

// DefaultDriveParentFolderID is the folder holding one sub-folder per
// project acronym.
const DefaultDriveParentFolderID = "1MIyHmDXXSFMRaMPjUjYBJjsD-vaRoemp"

type Config struct {
	// Backend selection
	DataBackend string

	// Workbook layout
	ParamsSheetName   string
	ImportSheetName   string
	TemplateSheetName string

	// Google (sheets backend)
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleOAuthClientFile    string
	GoogleOAuthTokenFile     string
	GoogleOAuthClientJSON    string
	GoogleOAuthTokenJSON     string
	DriveParentFolderID      string

	// Memory backend: CSV workbook, local output tree, Gotenberg renderer
	DataDir          string
	OutputDir        string
	GotenbergURL     string
	GotenbergTimeout time.Duration

	// Run journal
	SQLiteDBPath string

	// AMQP, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		DataBackend: getEnv("DATA_BACKEND", BackendMemory),

		ParamsSheetName:   getEnv("PARAMS_SHEET_NAME", "Accueil"),
		ImportSheetName:   getEnv("IMPORT_SHEET_NAME", "Import temps déclarés"),
		TemplateSheetName: getEnv("TEMPLATE_SHEET_NAME", "Template"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),
		GoogleOAuthClientFile:    getEnv("GOOGLE_OAUTH_CLIENT_FILE", ""),
		GoogleOAuthTokenFile:     getEnv("GOOGLE_OAUTH_TOKEN_FILE", ""),
		GoogleOAuthClientJSON:    getEnv("GOOGLE_OAUTH_CLIENT_JSON", ""),
		GoogleOAuthTokenJSON:     getEnv("GOOGLE_OAUTH_TOKEN_JSON", ""),
		DriveParentFolderID:      getEnv("DRIVE_PARENT_FOLDER_ID", DefaultDriveParentFolderID),

		DataDir:          getEnv("DATA_DIR", "./data/workbook"),
		OutputDir:        getEnv("OUTPUT_DIR", "./data/output"),
		GotenbergURL:     getEnv("GOTENBERG_URL", "http://localhost:3000"),
		GotenbergTimeout: getEnvDuration("GOTENBERG_TIMEOUT", 30*time.Second),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/timesheets.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "timesheets"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "timesheet_events"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate data backend
	switch c.DataBackend {
	case BackendSheets, BackendMemory:
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [%s %s]", c.DataBackend, BackendSheets, BackendMemory))
	}

	// Sheet names
	names := map[string]string{
		"PARAMS_SHEET_NAME":   c.ParamsSheetName,
		"IMPORT_SHEET_NAME":   c.ImportSheetName,
		"TEMPLATE_SHEET_NAME": c.TemplateSheetName,
	}
	for _, key := range []string{"PARAMS_SHEET_NAME", "IMPORT_SHEET_NAME", "TEMPLATE_SHEET_NAME"} {
		if strings.TrimSpace(names[key]) == "" {
			errors = append(errors, fmt.Sprintf("%s cannot be empty", key))
		}
	}
	if c.ParamsSheetName == c.ImportSheetName || c.ParamsSheetName == c.TemplateSheetName || c.ImportSheetName == c.TemplateSheetName {
		errors = append(errors, "parameter, import and template sheets must be different sheets")
	}

	if c.DataBackend == BackendSheets {
		errors = append(errors, c.validateGoogle()...)
	}

	if c.DataBackend == BackendMemory {
		if c.DataDir == "" {
			errors = append(errors, "DATA_DIR cannot be empty when using memory backend")
		} else if st, err := os.Stat(c.DataDir); err != nil || !st.IsDir() {
			errors = append(errors, fmt.Sprintf("data directory does not exist: %s", c.DataDir))
		}
		if c.OutputDir == "" {
			errors = append(errors, "OUTPUT_DIR cannot be empty when using memory backend")
		}
		if u, err := url.Parse(c.GotenbergURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid GOTENBERG_URL '%s': must be an http(s) URL", c.GotenbergURL))
		}
		if c.GotenbergTimeout < time.Second || c.GotenbergTimeout > 10*time.Minute {
			errors = append(errors, fmt.Sprintf("invalid Gotenberg timeout %v: must be between 1s and 10m", c.GotenbergTimeout))
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func (c *Config) validateGoogle() []string {
	var errors []string
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
	}
	if c.DriveParentFolderID == "" {
		errors = append(errors, "DRIVE_PARENT_FOLDER_ID cannot be empty when using sheets backend")
	}

	hasServiceAccount := c.GoogleServiceAccountJSON != "" || c.GoogleServiceAccountFile != ""
	hasClient := c.GoogleOAuthClientFile != "" || c.GoogleOAuthClientJSON != ""
	hasToken := c.GoogleOAuthTokenFile != "" || c.GoogleOAuthTokenJSON != ""

	switch {
	case hasServiceAccount:
		if c.GoogleServiceAccountJSON == "" {
			errors = append(errors, missingFile("Google service account file", c.GoogleServiceAccountFile)...)
		}
	case hasClient:
		if !hasToken {
			errors = append(errors, "either GOOGLE_OAUTH_TOKEN_FILE or GOOGLE_OAUTH_TOKEN_JSON must be provided with an OAuth client (run oauth-init)")
		}
		if c.GoogleOAuthClientJSON == "" {
			errors = append(errors, missingFile("Google OAuth client file", c.GoogleOAuthClientFile)...)
		}
		if c.GoogleOAuthTokenJSON == "" && c.GoogleOAuthTokenFile != "" {
			errors = append(errors, missingFile("Google OAuth token file", c.GoogleOAuthTokenFile)...)
		}
	default:
		errors = append(errors, "Google credentials are required for sheets backend: set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or an OAuth client and token")
	}
	return errors
}

func missingFile(what, path string) []string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return []string{fmt.Sprintf("%s does not exist: %s", what, path)}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

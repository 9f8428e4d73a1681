package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Graph     GraphConfig     `mapstructure:"graph"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Mail      MailConfig      `mapstructure:"mail"`
	Calendar  CalendarConfig  `mapstructure:"calendar"`
	Report    ReportConfig    `mapstructure:"report"`
	State     StateConfig     `mapstructure:"state"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// GraphConfig holds Microsoft Graph API configuration
type GraphConfig struct {
	TenantID     string `mapstructure:"tenant_id"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	UserEmail    string `mapstructure:"user_email"`
	BaseURL      string `mapstructure:"base_url"`
}

// GeminiConfig holds the Gemini classification backend configuration
type GeminiConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	BaseURL        string `mapstructure:"base_url"`
	InternalDomain string `mapstructure:"internal_domain"`
}

// MailConfig selects and configures the mailbox fetch backend
type MailConfig struct {
	UseIMAP      bool   `mapstructure:"use_imap"`
	IMAPHost     string `mapstructure:"imap_host"`
	IMAPPort     int    `mapstructure:"imap_port"`
	IMAPUser     string `mapstructure:"imap_user"`
	IMAPPassword string `mapstructure:"imap_password"`
}

// CalendarConfig selects and configures the calendar backend
type CalendarConfig struct {
	Provider string       `mapstructure:"provider"` // graph or google
	Timezone string       `mapstructure:"timezone"`
	Google   GoogleConfig `mapstructure:"google"`
}

// GoogleConfig holds Google Calendar OAuth2 configuration
type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RefreshToken string `mapstructure:"refresh_token"`
	CalendarID   string `mapstructure:"calendar_id"`
}

// ReportConfig holds the report workbook configuration
type ReportConfig struct {
	Path string `mapstructure:"path"`
}

// StateConfig holds the persistent dedup set file locations
type StateConfig struct {
	Dir                 string `mapstructure:"dir"`
	ProcessedEmailsFile string `mapstructure:"processed_emails_file"`
	ProcessedEventsFile string `mapstructure:"processed_events_file"`
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	IntervalMinutes int `mapstructure:"interval_minutes"`
	FetchLimit      int `mapstructure:"fetch_limit"`
	DigestWeekday   int `mapstructure:"digest_weekday"` // 0 = Sunday .. 6 = Saturday
}

// LoadConfig loads configuration from environment variables and config file
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set defaults
	setDefaults()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Environment variables override config file
	viper.AutomaticEnv()

	// Bind environment variables
	bindEnvVars()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")

	viper.SetDefault("graph.base_url", "https://graph.microsoft.com/v1.0")

	viper.SetDefault("gemini.model", "gemini-2.5-pro")
	viper.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com")

	viper.SetDefault("mail.use_imap", false)
	viper.SetDefault("mail.imap_host", "outlook.office365.com")
	viper.SetDefault("mail.imap_port", 993)

	viper.SetDefault("calendar.provider", "graph")
	viper.SetDefault("calendar.timezone", "Asia/Kolkata")
	viper.SetDefault("calendar.google.calendar_id", "primary")

	viper.SetDefault("report.path", "Opportunities.xlsx")

	viper.SetDefault("state.dir", ".")
	viper.SetDefault("state.processed_emails_file", "processed_emails.ids")
	viper.SetDefault("state.processed_events_file", "processed_events.ids")

	viper.SetDefault("scheduler.interval_minutes", 5)
	viper.SetDefault("scheduler.fetch_limit", 25)
	viper.SetDefault("scheduler.digest_weekday", int(time.Friday))
}

// bindEnvVars binds environment variables to configuration keys
func bindEnvVars() {
	// Server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	viper.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")

	// Microsoft Graph
	viper.BindEnv("graph.tenant_id", "GRAPH_TENANT_ID")
	viper.BindEnv("graph.client_id", "GRAPH_CLIENT_ID")
	viper.BindEnv("graph.client_secret", "GRAPH_CLIENT_SECRET")
	viper.BindEnv("graph.user_email", "GRAPH_USER_EMAIL")
	viper.BindEnv("graph.base_url", "GRAPH_BASE_URL")

	// Gemini
	viper.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	viper.BindEnv("gemini.model", "GEMINI_MODEL")
	viper.BindEnv("gemini.base_url", "GEMINI_BASE_URL")
	viper.BindEnv("gemini.internal_domain", "GEMINI_INTERNAL_DOMAIN")

	// Mail backend
	viper.BindEnv("mail.use_imap", "MAIL_USE_IMAP")
	viper.BindEnv("mail.imap_host", "MAIL_IMAP_HOST")
	viper.BindEnv("mail.imap_port", "MAIL_IMAP_PORT")
	viper.BindEnv("mail.imap_user", "MAIL_IMAP_USER")
	viper.BindEnv("mail.imap_password", "MAIL_IMAP_PASSWORD")

	// Calendar backend
	viper.BindEnv("calendar.provider", "CALENDAR_PROVIDER")
	viper.BindEnv("calendar.timezone", "CALENDAR_TIMEZONE")
	viper.BindEnv("calendar.google.client_id", "GOOGLE_CLIENT_ID")
	viper.BindEnv("calendar.google.client_secret", "GOOGLE_CLIENT_SECRET")
	viper.BindEnv("calendar.google.refresh_token", "GOOGLE_REFRESH_TOKEN")
	viper.BindEnv("calendar.google.calendar_id", "GOOGLE_CALENDAR_ID")

	// Report and state files
	viper.BindEnv("report.path", "REPORT_PATH")
	viper.BindEnv("state.dir", "STATE_DIR")
	viper.BindEnv("state.processed_emails_file", "STATE_PROCESSED_EMAILS_FILE")
	viper.BindEnv("state.processed_events_file", "STATE_PROCESSED_EVENTS_FILE")

	// Scheduler
	viper.BindEnv("scheduler.interval_minutes", "SCHEDULER_INTERVAL_MINUTES")
	viper.BindEnv("scheduler.fetch_limit", "SCHEDULER_FETCH_LIMIT")
	viper.BindEnv("scheduler.digest_weekday", "SCHEDULER_DIGEST_WEEKDAY")
}

// ProcessedEmailsPath returns the full path of the processed-emails set file
func (c *StateConfig) ProcessedEmailsPath() string {
	return filepath.Join(c.Dir, c.ProcessedEmailsFile)
}

// ProcessedEventsPath returns the full path of the processed-events set file
func (c *StateConfig) ProcessedEventsPath() string {
	return filepath.Join(c.Dir, c.ProcessedEventsFile)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	// Graph is always required: even with IMAP fetching and a Google
	// calendar, lead folders are provisioned in OneDrive.
	if c.Graph.TenantID == "" || c.Graph.ClientID == "" || c.Graph.ClientSecret == "" || c.Graph.UserEmail == "" {
		return fmt.Errorf("Graph tenant, client credentials, and user email are required")
	}

	if c.Mail.UseIMAP {
		if c.Mail.IMAPUser == "" || c.Mail.IMAPPassword == "" {
			return fmt.Errorf("IMAP credentials are required when using IMAP")
		}
	}

	if c.Gemini.APIKey == "" {
		return fmt.Errorf("Gemini API key is required")
	}

	switch c.Calendar.Provider {
	case "graph":
	case "google":
		g := c.Calendar.Google
		if g.ClientID == "" || g.ClientSecret == "" || g.RefreshToken == "" {
			return fmt.Errorf("Google Calendar OAuth2 credentials are required when provider is google")
		}
	default:
		return fmt.Errorf("unknown calendar provider: %s", c.Calendar.Provider)
	}

	if _, err := time.LoadLocation(c.Calendar.Timezone); err != nil {
		return fmt.Errorf("invalid calendar timezone %q: %w", c.Calendar.Timezone, err)
	}

	if c.Report.Path == "" {
		return fmt.Errorf("report path is required")
	}

	if c.Scheduler.IntervalMinutes <= 0 {
		return fmt.Errorf("scheduler interval must be greater than 0")
	}
	if c.Scheduler.FetchLimit <= 0 {
		return fmt.Errorf("scheduler fetch limit must be greater than 0")
	}
	if c.Scheduler.DigestWeekday < 0 || c.Scheduler.DigestWeekday > 6 {
		return fmt.Errorf("scheduler digest weekday must be between 0 and 6")
	}

	return nil
}

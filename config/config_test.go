package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
		},
		Graph: GraphConfig{
			TenantID:     "tenant",
			ClientID:     "client",
			ClientSecret: "secret",
			UserEmail:    "sales@example.com",
		},
		Gemini: GeminiConfig{
			APIKey: "key",
			Model:  "gemini-2.5-pro",
		},
		Calendar: CalendarConfig{
			Provider: "graph",
			Timezone: "Asia/Kolkata",
		},
		Report: ReportConfig{
			Path: "Opportunities.xlsx",
		},
		Scheduler: SchedulerConfig{
			IntervalMinutes: 5,
			FetchLimit:      25,
			DigestWeekday:   int(time.Friday),
		},
	}
}

func TestConfigValidation(t *testing.T) {
	config := validConfig()
	assert.NoError(t, config.Validate())

	invalidConfig := &Config{
		Server: ServerConfig{
			Port: "",
		},
	}
	assert.Error(t, invalidConfig.Validate())
}

func TestConfigValidationGraphCredentials(t *testing.T) {
	config := validConfig()
	config.Graph.ClientSecret = ""
	assert.Error(t, config.Validate())
}

func TestConfigValidationIMAPCredentials(t *testing.T) {
	config := validConfig()
	config.Mail.UseIMAP = true
	assert.Error(t, config.Validate())

	config.Mail.IMAPUser = "user"
	config.Mail.IMAPPassword = "pass"
	assert.NoError(t, config.Validate())
}

func TestConfigValidationCalendarProvider(t *testing.T) {
	config := validConfig()
	config.Calendar.Provider = "caldav"
	assert.Error(t, config.Validate())

	config.Calendar.Provider = "google"
	assert.Error(t, config.Validate())

	config.Calendar.Google = GoogleConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RefreshToken: "token",
		CalendarID:   "primary",
	}
	assert.NoError(t, config.Validate())
}

func TestConfigValidationTimezone(t *testing.T) {
	config := validConfig()
	config.Calendar.Timezone = "Not/AZone"
	assert.Error(t, config.Validate())
}

func TestConfigValidationScheduler(t *testing.T) {
	config := validConfig()
	config.Scheduler.IntervalMinutes = 0
	assert.Error(t, config.Validate())

	config = validConfig()
	config.Scheduler.FetchLimit = 0
	assert.Error(t, config.Validate())

	config = validConfig()
	config.Scheduler.DigestWeekday = 7
	assert.Error(t, config.Validate())
}

func TestStatePaths(t *testing.T) {
	state := StateConfig{
		Dir:                 "/var/lib/lead-tracker",
		ProcessedEmailsFile: "processed_emails.ids",
		ProcessedEventsFile: "processed_events.ids",
	}

	assert.Equal(t, "/var/lib/lead-tracker/processed_emails.ids", state.ProcessedEmailsPath())
	assert.Equal(t, "/var/lib/lead-tracker/processed_events.ids", state.ProcessedEventsPath())
}

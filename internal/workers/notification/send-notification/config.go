// internal/workers/notification/send-notification/config.go
package sendnotification

import (
	appconfig "jobmatch-notifier/internal/common/config"
)

type Config struct {
	EmailEnabled       bool
	SMSEnabled         bool
	DefaultCountryCode string
	TemplatePath       string
}

func LoadConfig(cfg *appconfig.Config) *Config {
	return &Config{
		EmailEnabled:       cfg.Notifications.Email.Enabled,
		SMSEnabled:         cfg.Notifications.SMS.Enabled,
		DefaultCountryCode: cfg.Notifications.SMS.DefaultCountryCode,
		TemplatePath:       cfg.Notifications.TemplatePath,
	}
}

package constants

import "time"

const (
	AppName           = "remindr"
	DefaultConfigDir  = "~/.config/remindr"
	DefaultConfigFile = "~/.config/remindr/config.yaml"
	Version           = "v0.3.0"

	// StorageKey is the key the reminder list is persisted under. The key doubles as the
	// schema version: changing the record shape means changing the key.
	StorageKey = "reminders_v3"

	// UnreadableSuffix names the key a list that is not valid JSON is copied to.
	UnreadableSuffix = ".unreadable"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// DateTimeFormat is accepted for one-shot reminders (YYYY-MM-DD HH:MM)
	DateTimeFormat = "2006-01-02 15:04"

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifyPollInterval     = 30 * time.Second
	NotifierLockfileName   = "remindr-tray.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.remindr"
	TestNotificationDelay  = 5 * time.Second

	// Fallback shown for a rule the describer does not recognise
	CustomRepeatLabel = "Custom repeat"
)

package config

import (
	"github.com/knadh/koanf/providers/confmap"

	"github.com/julianstephens/remindr/internal/constants"
)

func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"storage": map[string]interface{}{
			"backend":    string(constants.BackendFile),
			"path":       "", // derived from the backend
			"dsn":        "",
			"redis_addr": constants.DefaultRedisAddr,
			"redis_db":   0,
			"key":        constants.StorageKey,
			"backup_dir": constants.DefaultConfigDir + "/backups",
		},
		"notifications": map[string]interface{}{
			"enabled":       true,
			"queue_path":    constants.DefaultQueuePath,
			"poll_interval": constants.NotifyPollInterval.String(),
			"duration_ms":   constants.NotificationDurationMs,
		},
		"log": map[string]interface{}{
			"dir":   constants.DefaultConfigDir + "/logs",
			"level": "warn",
			"debug": false,
		},
	}
}

func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}

package logger

import (
	"os"
	"strings"

	"marketplace-checkout/internal/config"

	log "github.com/sirupsen/logrus"
)

// Setup configures the package-level logrus logger.
func Setup(cfg config.Log, environment string) {
	log.SetOutput(os.Stdout)

	if strings.EqualFold(cfg.Format, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.WithField("level", cfg.Level).Warn("unknown log level, falling back to info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	log.AddHook(&staticFieldsHook{fields: log.Fields{"env": environment}})
}

type staticFieldsHook struct {
	fields log.Fields
}

func (h *staticFieldsHook) Levels() []log.Level {
	return log.AllLevels
}

func (h *staticFieldsHook) Fire(entry *log.Entry) error {
	for k, v := range h.fields {
		if _, ok := entry.Data[k]; !ok {
			entry.Data[k] = v
		}
	}
	return nil
}

package config

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

func (c LogConfig) validate() error {
	if _, err := log.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("log.level %q is invalid", c.Level)
	}
	switch c.Format {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("log.format %q is invalid; valid values: text, json", c.Format)
	}
}

// Apply sets logger's level and formatter.
func (c LogConfig) Apply(logger *log.Logger) error {
	if err := c.validate(); err != nil {
		return err
	}
	level, _ := log.ParseLevel(c.Level)
	logger.SetLevel(level)

	if c.Format == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

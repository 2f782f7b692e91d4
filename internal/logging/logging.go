// Package logging builds the logrus logger used by every component.
package logging

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// New returns a logger configured for env, writing to w. A non-empty level
// overrides the environment's default level.
//
//	local  debug, colored text
//	dev    info, text with full timestamps
//	prod   warn, JSON
func New(env, level string, w io.Writer) (*logrus.Entry, error) {
	log := logrus.New()
	log.SetOutput(w)

	switch env {
	case EnvLocal:
		log.SetLevel(logrus.DebugLevel)
		log.SetFormatter(&logrus.TextFormatter{
			ForceColors:     true,
			TimestampFormat: "15:04:05",
			FullTimestamp:   true,
		})
	case EnvDev:
		log.SetLevel(logrus.InfoLevel)
		log.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		})
	case EnvProd:
		log.SetLevel(logrus.WarnLevel)
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown environment: %q", env)
	}

	if level != "" {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		log.SetLevel(lvl)
	}

	return logrus.NewEntry(log).WithField("env", env), nil
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(log)
}

// Package version хранит сведения о сборке pricing-service, заданные через -ldflags.
package version

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Info возвращает версию, commit и дату сборки.
func Info() (v, c, d string) { return version, commit, date }

// GetVersion возвращает версию сборки pricing-service.
func GetVersion() string { return version }

// Fields возвращает сведения о сборке для стартового лога сервиса и утилит.
func Fields() log.Fields {
	return log.Fields{
		"version": version,
		"commit":  commit,
		"built":   date,
	}
}

func String() string {
	return fmt.Sprintf("pricing-service %s (commit %s, built %s)", version, commit, date)
}

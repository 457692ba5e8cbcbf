// Package logging sets up the process-wide logrus logger and hands out
// component-scoped child loggers, the way the teacher repo configures
// logrus once (netInit in cmd/cli/network.go) and then calls
// logrus.Infof/Warnf from every subsystem.
package logging

import "github.com/sirupsen/logrus"

// Configure sets the global logrus level from a --log-level style string.
// An unrecognized level falls back to info rather than failing startup,
// since a bad log level is not a reason to refuse to run the hub.
func Configure(level string) {
	lv, err := logrus.ParseLevel(level)
	if err != nil {
		lv = logrus.InfoLevel
	}
	logrus.SetLevel(lv)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// For returns a logger scoped to a named component, e.g. For("hub"),
// For("chain-client").
func For(component string) *logrus.Entry {
	return logrus.WithField("component", component)
}

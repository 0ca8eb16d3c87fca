package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	DEBUG int = iota
	INFO
	WARNING
	ERROR
	SILENCE
)

type Logger interface {
	Debugf(msg string, a ...any)
	Infof(msg string, a ...any)
	Warnf(msg string, a ...any)
	Errorf(msg string, a ...any)
}

type defaultLogger struct {
	entry *logrus.Entry
}

func NewLogger(level int) *defaultLogger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	switch level {
	case DEBUG:
		l.SetLevel(logrus.DebugLevel)
	case INFO:
		l.SetLevel(logrus.InfoLevel)
	case WARNING:
		l.SetLevel(logrus.WarnLevel)
	case ERROR:
		l.SetLevel(logrus.ErrorLevel)
	default:
		l.SetLevel(logrus.PanicLevel)
	}

	return &defaultLogger{entry: logrus.NewEntry(l)}
}

// ParseLevel converts a level name in the configuration into a logger level. Unknown names fall
// back to INFO.
func ParseLevel(s string) int {
	switch strings.ToLower(s) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARNING
	case "error":
		return ERROR
	case "silence", "off":
		return SILENCE
	default:
		return INFO
	}
}

// WithField returns a logger which attaches the key-value pair to every message.
func (l *defaultLogger) WithField(key string, value any) *defaultLogger {
	return &defaultLogger{entry: l.entry.WithField(key, value)}
}

func (l *defaultLogger) Debugf(msg string, a ...any) {
	l.entry.Debugf(msg, a...)
}

func (l *defaultLogger) Infof(msg string, a ...any) {
	l.entry.Infof(msg, a...)
}

func (l *defaultLogger) Warnf(msg string, a ...any) {
	l.entry.Warnf(msg, a...)
}

func (l *defaultLogger) Errorf(msg string, a ...any) {
	l.entry.Errorf(msg, a...)
}

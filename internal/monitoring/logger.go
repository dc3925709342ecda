package monitoring

import (
	"io"
	"log"
	"os"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Options configures NewLogger.
type Options struct {
	// Level is a logrus level name; empty means info.
	Level string
	// File, when set, receives a copy of every entry and is rotated by size.
	File string
	// Stderr overrides the console writer; nil means os.Stderr.
	Stderr io.Writer
	// NoColors disables ANSI colour in the console output.
	NoColors bool
}

// Log file rotation limits.
const (
	logMaxSizeMB  = 100
	logMaxBackups = 3
	logMaxAgeDays = 7
)

// NewLogger builds a logrus logger writing to stderr and, optionally, to a
// rotating log file.
func NewLogger(opts Options) (*logrus.Logger, error) {
	l := logrus.New()

	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, err
		}
		level = parsed
	}
	l.SetLevel(level)

	l.SetFormatter(&formatter.Formatter{
		NoColors:        opts.NoColors,
		TimestampFormat: "02 Jan 06 - 15:04:05",
		HideKeys:        false,
	})

	console := opts.Stderr
	if console == nil {
		console = os.Stderr
	}
	writers := []io.Writer{console}
	if opts.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			LocalTime:  true,
			Compress:   true,
			MaxSize:    logMaxSizeMB,
			MaxAge:     logMaxAgeDays,
			MaxBackups: logMaxBackups,
		})
	}
	l.SetOutput(io.MultiWriter(writers...))
	return l, nil
}

// UseLogrus routes Logf into l at info level.
func UseLogrus(l *logrus.Logger) {
	if l == nil {
		SetLogger(nil)
		return
	}
	SetLogger(l.Infof)
}

// Package logger owns the process-wide structured logger. Records go to a rotating file
// under the log directory; --debug mirrors them to stderr.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/remindr/internal/constants"
)

// Logger is the global logger. Nil until Init succeeds; the package functions are no-ops
// until then.
var Logger *log.Logger

var file *lumberjack.Logger

type Config struct {
	Dir   string
	Level string // debug, info, warn or error; empty means warn
	Debug bool   // forces debug level and mirrors to stderr
}

func Init(cfg Config) error {
	level := log.WarnLevel
	if cfg.Level != "" {
		l, err := log.ParseLevel(cfg.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = l
	}
	if cfg.Debug {
		level = log.DebugLevel
	}

	if err := os.MkdirAll(cfg.Dir, 0700); err != nil {
		return err
	}

	Close()
	file = &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, constants.AppName+".log"),
		MaxSize:    5, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}

	var w io.Writer = file
	if cfg.Debug {
		w = io.MultiWriter(os.Stderr, file)
	}

	Logger = log.NewWithOptions(w, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          constants.AppName,
	})
	return nil
}

// Close flushes and releases the log file.
func Close() error {
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

// For returns a logger tagged with a component name, e.g. the dispatcher loop.
func For(component string) *log.Logger {
	if Logger == nil {
		return log.New(io.Discard)
	}
	return Logger.With("component", component)
}

func Debug(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

func Info(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

func Warn(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

func Error(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}

package main

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ystepanoff/e012tx/config"
)

// setupLogging configures the standard logrus logger every package entry is
// derived from. The returned closer is nil when logging to stderr only.
func setupLogging(c config.LogConfig) (io.Closer, error) {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if c.File == "" {
		logrus.SetOutput(os.Stderr)
		return nil, nil
	}
	lj := &lumberjack.Logger{
		Filename:   c.File,
		MaxSize:    c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		Compress:   true,
	}
	logrus.SetOutput(io.MultiWriter(os.Stderr, lj))
	return lj, nil
}

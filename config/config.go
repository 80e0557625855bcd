package config

import (
	"strings"
)

const (
	EmptyPath = ""

	DefaultFilename = "config.yaml"
	EnvPrefix       = "BATCHBOARD"
)

// set through ldflags at build time
var (
	BuildVersion = "dev"
	BuildCommit  = ""
	BuildDate    = ""
)

type Version string

func (v Version) String() string {
	return string(v)
}

type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
	LogLevelFatal LogLevel = "FATAL"
)

func (l LogLevel) String() string {
	return strings.ToUpper(string(l))
}

type LogConfig struct {
	Level LogLevel `default:"INFO" mapstructure:"level"`
}

// Package log builds the zap loggers used by the wetwire-k3s CLI.
package log

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Format is the log output encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatConsole Format = "console"
)

// AvailableFormats lists the accepted --log-format values.
var AvailableFormats = []Format{FormatJSON, FormatConsole}

// String implements pflag.Value.
func (f *Format) String() string {
	return string(*f)
}

// Set implements pflag.Value.
func (f *Format) Set(s string) error {
	for _, a := range AvailableFormats {
		if string(a) == strings.ToLower(s) {
			*f = a
			return nil
		}
	}
	return fmt.Errorf("invalid log format %q, must be one of %v", s, AvailableFormats)
}

// Type implements pflag.Value.
func (f *Format) Type() string {
	return "string"
}

// Options configures the logger.
type Options struct {
	Debug  bool
	Format Format
}

// NewDefaultOptions returns console logging at info level.
func NewDefaultOptions() Options {
	return Options{Format: FormatConsole}
}

// AddFlags registers --debug and --log-format on fs.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.Debug, "debug", o.Debug, "Enable debug logging")
	fs.Var(&o.Format, "log-format", "Log format, one of json or console")
}

// New creates a logger writing to stderr.
func New(debug bool, format Format) *zap.Logger {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if debug {
		level.SetLevel(zap.DebugLevel)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if format == FormatJSON {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level)
	opts := []zap.Option{zap.ErrorOutput(zapcore.Lock(os.Stderr))}
	if debug {
		opts = append(opts, zap.AddCaller())
	}
	return zap.New(core, opts...)
}

// NewFromOptions is New(o.Debug, o.Format).
func NewFromOptions(o Options) *zap.Logger {
	return New(o.Debug, o.Format)
}

package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FieldCommand = "command"
	FieldVersion = "version"
)

// Options configures the process logger.
type Options struct {
	JSON  bool
	Debug bool
	// Command names the subcommand producing the entries, e.g. "panel" or "serve".
	Command string
	Version string
	// Output is a zap sink path. The panel draws its menu on stdout, so the
	// default is stderr.
	Output string
}

// New builds the process logger. Debug turns on development mode, so DPanic
// assertions panic instead of only logging.
func New(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}

	encoding := "console"
	if opts.JSON {
		encoding = "json"
	}

	output := opts.Output
	if output == "" {
		output = "stderr"
	}

	cfg := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		Development:      opts.Debug,
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "step",

			LevelKey:    "level",
			EncodeLevel: zapcore.LowercaseLevelEncoder,

			TimeKey:    "time",
			EncodeTime: zapcore.RFC3339TimeEncoder,

			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,
		},
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return WithFields(logger, StringFields(
		StringField{Key: FieldCommand, Value: opts.Command},
		StringField{Key: FieldVersion, Value: opts.Version},
	)...), nil
}

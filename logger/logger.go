package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogStreamer is the structured logger used across the service. Every entry
// carries a trace ID, a source tag (SERVICE, REPO, JUDGE, MAIN) and a flat
// field map so the log pipeline can index entries per request.
type LogStreamer struct {
	zl  *zap.Logger
	env string
}

// NewLogStreamer builds a streamer for the given environment. Production
// emits JSON to stdout, anything else uses the development console encoder.
func NewLogStreamer(env string) *LogStreamer {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{"stdout"}
	zl, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// fall back to a bare production logger rather than dying on config
		zl = zap.New(zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.Lock(os.Stdout),
			zapcore.InfoLevel,
		))
	}
	return &LogStreamer{zl: zl, env: env}
}

// NewNop returns a streamer that discards everything. Used in tests.
func NewNop() *LogStreamer {
	return &LogStreamer{zl: zap.NewNop(), env: "test"}
}

// Log writes one entry at the given level.
func (l *LogStreamer) Log(level zapcore.Level, traceID string, msg string, fields map[string]any, source string, err error) {
	zf := make([]zap.Field, 0, len(fields)+3)
	zf = append(zf, zap.String("traceId", traceID), zap.String("source", source))
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	if err != nil {
		zf = append(zf, zap.Error(err))
	}
	if ce := l.zl.Check(level, msg); ce != nil {
		ce.Write(zf...)
	}
}

// Sync flushes buffered entries. Called on shutdown.
func (l *LogStreamer) Sync() {
	_ = l.zl.Sync()
}

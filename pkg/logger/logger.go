package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is a no-op until InitLogger runs, so packages can log from tests.
var Log *zap.SugaredLogger = zap.NewNop().Sugar()

// InitLogger installs the process logger. format is "console" (default) or
// "json" for shipping the device journal elsewhere.
func InitLogger(levelStr, format string) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	// Default to INFO if invalid or empty
	if levelStr == "" {
		levelStr = "info"
	}
	level, levelErr := zapcore.ParseLevel(levelStr)
	if levelErr != nil {
		level = zap.InfoLevel
	}

	var encoder zapcore.Encoder
	switch format {
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	default:
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)

	logger := zap.New(core, zap.AddCaller(), zap.Fields(zap.String("service", "ringline")))
	Log = logger.Sugar()
	if levelErr != nil {
		Log.Warnf("Unknown log level %q, using info", levelStr)
	}
	Log.Infof("Logger initialized at level: %s", level.String())
}

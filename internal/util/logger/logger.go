package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	global *zap.SugaredLogger
)

// Config defines logging configuration.
type Config struct {
	Level    string `yaml:"level"`    // "debug", "info", "warn", "error"
	Encoding string `yaml:"encoding"` // "json" or "console"
}

// DefaultConfig returns the default logger config.
func DefaultConfig() *Config {
	return &Config{Level: "info", Encoding: "console"}
}

// Init builds the global logger from cfg. Safe to call more than once;
// the last call wins.
func Init(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	global = build(cfg)
}

func build(cfg *Config) *zap.SugaredLogger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.MessageKey = "msg"
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var encoder zapcore.Encoder
	if cfg.Encoding == "json" {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), level)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

func get() *zap.SugaredLogger {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l != nil {
		return l
	}
	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		global = build(DefaultConfig())
	}
	return global
}

// Sync flushes any buffered log entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if global != nil {
		_ = global.Sync()
	}
}

// Debugf logs at debug level with formatting.
func Debugf(msg string, args ...any) { get().Debugf(msg, args...) }

// Infof logs at info level with formatting.
func Infof(msg string, args ...any) { get().Infof(msg, args...) }

// Warnf logs at warn level with formatting.
func Warnf(msg string, args ...any) { get().Warnf(msg, args...) }

// Errorf logs at error level with formatting.
func Errorf(msg string, args ...any) { get().Errorf(msg, args...) }

// Fatalf logs at fatal level with formatting and exits.
func Fatalf(msg string, args ...any) { get().Fatalf(msg, args...) }

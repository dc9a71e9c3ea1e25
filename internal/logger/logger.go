package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config 日志配置，各字段由 config.LogConfig 填充。
// File 非空时日志同时写入轮转文件和标准输出。
type Config struct {
	Level       string
	Development bool
	File        string
	MaxSizeMB   int
	MaxBackups  int
	MaxAgeDays  int
	Compress    bool
}

// NewLogger 按配置构建日志器。开发模式用控制台编码并在 error 级别
// 附带堆栈，生产模式输出 JSON。级别解析失败时落回 info。
func NewLogger(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	sink, err := newSink(cfg)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(newEncoder(cfg.Development), sink, level)

	opts := []zap.Option{zap.AddCaller()}
	if cfg.Development {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	return zap.New(core, opts...), nil
}

// newEncoder 开发模式下输出控制台格式，其余输出 JSON。
func newEncoder(development bool) zapcore.Encoder {
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if development {
		return zapcore.NewConsoleEncoder(encCfg)
	}
	return zapcore.NewJSONEncoder(encCfg)
}

// newSink 组装输出目标。配置了日志文件时经 lumberjack 轮转，
// 并同时写一份到标准输出。
func newSink(cfg Config) (zapcore.WriteSyncer, error) {
	if cfg.File == "" {
		return zapcore.AddSync(os.Stdout), nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, err
	}
	rotated := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	return zapcore.NewMultiWriteSyncer(
		zapcore.AddSync(rotated),
		zapcore.AddSync(os.Stdout),
	), nil
}

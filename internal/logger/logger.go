package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// アプリのloggerを作る。devはconsole encoderでcallerとstack trace付き、
// それ以外はzapのproduction設定。
func New(level, encoding string, dev bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	if dev {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	if encoding == "console" || encoding == "json" {
		cfg.Encoding = encoding
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

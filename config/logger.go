package config

import (
	"fmt"
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process wide logger. It is a no-op logger until InitLogger runs.
var Logger = zap.NewNop()

// InitLogger initializes the Zap logger with Lumberjack log rotation and a 'logs' folder
func InitLogger() {
	err := os.MkdirAll("logs", os.ModePerm)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logs directory: %v", err))
	}

	logFile := &lumberjack.Logger{
		Filename:   fmt.Sprintf("logs/%s.log", time.Now().Format("2006-01-02")), // Logs will be named by date
		MaxSize:    10,                                                          // Megabytes before rotation
		MaxBackups: 7,
		MaxAge:     28, // Days
		Compress:   true,
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	level := zapcore.InfoLevel
	if GetEnvBool("LOG_DEBUG", false) {
		level = zapcore.DebugLevel
	}

	// File output always, console mirror in development
	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(logFile), level),
	}
	if GetEnvOrDefault("APP_ENV", "development") == "development" {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level))
	}

	Logger = zap.New(zapcore.NewTee(cores...))
}

package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	*zap.SugaredLogger
}

// New builds the production JSON logger.
func New() *Logger {
	return NewForEnvironment("production")
}

// NewForEnvironment builds a JSON logger; the development environment
// additionally emits debug entries with caller stack traces on warnings.
func NewForEnvironment(environment string) *Logger {
	config := zap.NewProductionConfig()
	if environment == "development" {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		config.Development = true
	}
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(err)
	}

	return &Logger{
		SugaredLogger: logger.Sugar(),
	}
}

// Wrap adapts an existing zap logger, used by tests with zaptest.
func Wrap(l *zap.Logger) *Logger {
	return &Logger{SugaredLogger: l.Sugar()}
}

// Zap returns the structured logger handed to services.
func (l *Logger) Zap() *zap.Logger {
	return l.SugaredLogger.Desugar()
}

func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With("request_id", requestID),
	}
}

// WithTelegramID tags entries with the Mini-App user they were logged for.
func (l *Logger) WithTelegramID(telegramID int64) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With("telegram_id", telegramID),
	}
}

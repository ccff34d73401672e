package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Fields map[string]interface{}

type Logger interface {
	Debug(msg string, fields Fields)
	Info(msg string, fields Fields)
	Warn(msg string, fields Fields)
	Error(msg string, fields Fields)
	Fatal(msg string, fields Fields)

	WithFields(fields Fields) Logger
}

type ZerologLogger struct {
	logger zerolog.Logger
	fields Fields
}

// New builds a JSON logger; development mode switches to the console writer.
func New(level string, development bool, output io.Writer) Logger {
	if output == nil {
		output = os.Stdout
	}

	zerolog.TimeFieldFormat = time.RFC3339

	var w io.Writer = output
	if development {
		w = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}

	zl := zerolog.New(w).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()

	return &ZerologLogger{logger: zl, fields: Fields{}}
}

// Nop discards everything. Used by tests.
func Nop() Logger {
	return &ZerologLogger{logger: zerolog.Nop(), fields: Fields{}}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *ZerologLogger) WithFields(fields Fields) Logger {
	merged := make(Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &ZerologLogger{logger: l.logger, fields: merged}
}

func (l *ZerologLogger) write(event *zerolog.Event, msg string, fields Fields) {
	for k, v := range l.fields {
		event = event.Interface(k, v)
	}
	for k, v := range fields {
		if err, ok := v.(error); ok {
			event = event.AnErr(k, err)
			continue
		}
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

func (l *ZerologLogger) Debug(msg string, fields Fields) {
	l.write(l.logger.Debug(), msg, fields)
}

func (l *ZerologLogger) Info(msg string, fields Fields) {
	l.write(l.logger.Info(), msg, fields)
}

func (l *ZerologLogger) Warn(msg string, fields Fields) {
	l.write(l.logger.Warn(), msg, fields)
}

func (l *ZerologLogger) Error(msg string, fields Fields) {
	l.write(l.logger.Error(), msg, fields)
}

func (l *ZerologLogger) Fatal(msg string, fields Fields) {
	l.write(l.logger.Fatal(), msg, fields)
}

// Package log provides a leveled, structured logger for the whole module,
// backed by zerolog. It is initialized once from the CLI entry point and
// used through package-level functions everywhere else.
package log

import (
	"fmt"
	"io"
	"os"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// Log levels the Init function accepts.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
	LogLevelFatal = "fatal"
)

// logTestWriterName is a reserved output name for tests and benchmarks.
const logTestWriterName = "logTest"

var (
	log   zerolog.Logger
	level string

	// logTestWriter is the writer used when Init is called with
	// logTestWriterName as output.
	logTestWriter io.Writer = io.Discard

	// panicOnInvalidChars makes the formatted log functions panic when the
	// resulting message contains invalid UTF-8, to catch unformatted binary
	// data leaking into logs. Enabled via LOG_PANIC_ON_INVALIDCHARS=true,
	// meant for tests only.
	panicOnInvalidChars = os.Getenv("LOG_PANIC_ON_INVALIDCHARS") == "true"
)

func init() {
	// A sane default so that packages logging before Init produce output.
	Init(LogLevelInfo, "stderr", nil)
}

// Init initializes the global logger with the given level and output. The
// output can be "stdout", "stderr" or a file path. If errorOutput is not
// nil, error and fatal messages are duplicated to it.
func Init(logLevel, output string, errorOutput io.Writer) {
	var out io.Writer
	switch output {
	case "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	case logTestWriterName:
		out = logTestWriter
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			panic(fmt.Sprintf("cannot open log output %q: %v", output, err))
		}
		out = f
	}
	if output != logTestWriterName {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "2006-01-02T15:04:05Z07:00",
		}
	}
	if errorOutput != nil {
		out = zerolog.MultiLevelWriter(out, errorLevelWriter{errorOutput})
	}
	zerolog.DurationFieldUnit = time.Millisecond
	log = zerolog.New(out).With().Timestamp().Logger()
	level = logLevel
	switch logLevel {
	case LogLevelDebug:
		log = log.Level(zerolog.DebugLevel)
	case LogLevelInfo:
		log = log.Level(zerolog.InfoLevel)
	case LogLevelWarn:
		log = log.Level(zerolog.WarnLevel)
	case LogLevelError:
		log = log.Level(zerolog.ErrorLevel)
	case LogLevelFatal:
		log = log.Level(zerolog.FatalLevel)
	default:
		panic(fmt.Sprintf("invalid log level %q", logLevel))
	}
}

// errorLevelWriter forwards only error-and-above messages to its writer.
type errorLevelWriter struct{ w io.Writer }

func (e errorLevelWriter) Write(p []byte) (int, error) { return len(p), nil }

func (e errorLevelWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l < zerolog.ErrorLevel {
		return len(p), nil
	}
	return e.w.Write(p)
}

// Level returns the log level set by the last call to Init.
func Level() string { return level }

// IsValidLevel reports whether Init accepts the given level.
func IsValidLevel(logLevel string) bool {
	switch logLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError, LogLevelFatal:
		return true
	}
	return false
}

// Logger returns the underlying zerolog logger, for the rare callers that
// need to attach it to a third-party library.
func Logger() *zerolog.Logger { return &log }

func checkInvalidChars(msg string) {
	if panicOnInvalidChars && !utf8.ValidString(msg) {
		panic(fmt.Sprintf("log message with invalid chars: %q", msg))
	}
}

func formatMessage(format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	checkInvalidChars(msg)
	return msg
}

// fieldsFromKV turns a flat ["key", value, ...] list into zerolog fields.
// An odd trailing key is dropped.
func fieldsFromKV(kv []any) map[string]any {
	fields := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kv[i])
		}
		fields[key] = kv[i+1]
	}
	return fields
}

// Debug logs a message at debug level.
func Debug(args ...any) { log.Debug().Msg(fmt.Sprint(args...)) }

// Info logs a message at info level.
func Info(args ...any) { log.Info().Msg(fmt.Sprint(args...)) }

// Warn logs a message at warn level.
func Warn(args ...any) { log.Warn().Msg(fmt.Sprint(args...)) }

// Error logs a message at error level.
func Error(args ...any) { log.Error().Msg(fmt.Sprint(args...)) }

// Fatal logs a message at fatal level and exits.
func Fatal(args ...any) { log.Fatal().Msg(fmt.Sprint(args...)) }

// Debugf logs a formatted message at debug level.
func Debugf(format string, args ...any) { log.Debug().Msg(formatMessage(format, args...)) }

// Infof logs a formatted message at info level.
func Infof(format string, args ...any) { log.Info().Msg(formatMessage(format, args...)) }

// Warnf logs a formatted message at warn level.
func Warnf(format string, args ...any) { log.Warn().Msg(formatMessage(format, args...)) }

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...any) { log.Error().Msg(formatMessage(format, args...)) }

// Fatalf logs a formatted message at fatal level and exits.
func Fatalf(format string, args ...any) { log.Fatal().Msg(formatMessage(format, args...)) }

// Debugw logs a message at debug level with key-value fields.
func Debugw(msg string, kv ...any) { log.Debug().Fields(fieldsFromKV(kv)).Msg(msg) }

// Infow logs a message at info level with key-value fields.
func Infow(msg string, kv ...any) { log.Info().Fields(fieldsFromKV(kv)).Msg(msg) }

// Warnw logs a message at warn level with key-value fields.
func Warnw(msg string, kv ...any) { log.Warn().Fields(fieldsFromKV(kv)).Msg(msg) }

// Errorw logs an error at error level with key-value fields.
func Errorw(err error, msg string, kv ...any) {
	log.Error().Err(err).Fields(fieldsFromKV(kv)).Msg(msg)
}

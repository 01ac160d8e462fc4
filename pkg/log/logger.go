package log

import (
	"os"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// Stack dumps start with "goroutine <id> [state]:"; the ID is all we
	// need, so a small fixed buffer is enough.
	stackBufSize = 32

	// Length of the "goroutine " prefix preceding the ID.
	goroutinePrefixLen = 10
)

var (
	Logger zerolog.Logger

	stackBufPool = sync.Pool{
		New: func() interface{} {
			return make([]byte, stackBufSize)
		},
	}
)

func init() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}

	Logger = zerolog.New(output).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Logger().
		Hook(zerolog.HookFunc(func(e *zerolog.Event, level zerolog.Level, msg string) {
			e.Str("goid", goroutineID())
		}))

	// Set global logger
	log.Logger = Logger
}

// goroutineID parses the current goroutine's ID out of the first stack
// trace line. Returns "unknown" when the line cannot be parsed.
func goroutineID() string {
	buf, ok := stackBufPool.Get().([]byte)
	if !ok {
		return "unknown"
	}
	defer stackBufPool.Put(buf) //nolint:staticcheck // buf is a slice, this is the correct usage

	stackLen := runtime.Stack(buf, false)
	if stackLen <= goroutinePrefixLen {
		return "unknown"
	}

	start := goroutinePrefixLen
	end := start
	for end < stackLen && buf[end] >= '0' && buf[end] <= '9' {
		end++
	}

	if end == start {
		return "unknown"
	}
	return string(buf[start:end])
}

// Info logs an info message with goroutine ID.
func Info() *zerolog.Event {
	return Logger.Info()
}

// Error logs an error message with goroutine ID.
func Error() *zerolog.Event {
	return Logger.Error()
}

// Warn logs a warning message with goroutine ID.
func Warn() *zerolog.Event {
	return Logger.Warn()
}

// Debug logs a debug message with goroutine ID.
func Debug() *zerolog.Event {
	return Logger.Debug()
}

// Fatal logs a fatal message with goroutine ID and exits.
func Fatal() *zerolog.Event {
	return Logger.Fatal()
}

// SetDebugMode switches the logger to debug level.
func SetDebugMode() {
	Logger = Logger.Level(zerolog.DebugLevel)
	log.Logger = Logger
}

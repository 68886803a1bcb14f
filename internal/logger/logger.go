package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var (
	logInstance *Logger
	levelNames  = map[LogLevel]string{
		DEBUG: "DEBUG",
		INFO:  "INFO",
		WARN:  "WARN",
		ERROR: "ERROR",
		FATAL: "FATAL",
	}
	zerologLevels = map[LogLevel]zerolog.Level{
		DEBUG: zerolog.DebugLevel,
		INFO:  zerolog.InfoLevel,
		WARN:  zerolog.WarnLevel,
		ERROR: zerolog.ErrorLevel,
		FATAL: zerolog.FatalLevel,
	}
)

type Logger struct {
	zl       zerolog.Logger
	level    LogLevel
	file     *os.File
	filename string
}

// Init configures the process-wide logger. Console output is always on;
// logToFile adds a JSON sink under logs/.
func Init(logLevel string, logToFile bool) error {
	return InitWithWriter(logLevel, logToFile, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006-01-02 15:04:05"})
}

// InitWithWriter is Init with an explicit console writer.
func InitWithWriter(logLevel string, logToFile bool, console io.Writer) error {
	level := getLevelFromString(logLevel)

	var logFile *os.File
	var filename string
	out := console

	if logToFile {
		if err := os.MkdirAll("logs", 0755); err != nil {
			return fmt.Errorf("failed to create logs directory: %v", err)
		}

		filename = filepath.Join("logs", fmt.Sprintf("bot_%s.log", time.Now().Format("2006-01-02")))

		file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("failed to open log file: %v", err)
		}
		logFile = file
		out = zerolog.MultiLevelWriter(console, file)
	}

	logInstance = &Logger{
		zl: zerolog.New(out).
			Level(zerologLevels[level]).
			With().
			Timestamp().
			CallerWithSkipFrameCount(4).
			Logger(),
		level:    level,
		file:     logFile,
		filename: filename,
	}

	Info("Logger initialized", "level", levelNames[level], "file", filename)
	return nil
}

func getLevelFromString(level string) LogLevel {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}

func (l *Logger) log(level LogLevel, msg string, fields ...interface{}) {
	if level < l.level {
		return
	}

	var ev *zerolog.Event
	switch level {
	case DEBUG:
		ev = l.zl.Debug()
	case INFO:
		ev = l.zl.Info()
	case WARN:
		ev = l.zl.Warn()
	case ERROR:
		ev = l.zl.Error()
	default:
		// WithLevel does not exit; Fatal handles os.Exit itself.
		ev = l.zl.WithLevel(zerolog.FatalLevel)
	}

	for i := 0; i < len(fields); i += 2 {
		if i+1 >= len(fields) {
			ev = ev.Interface("extra", fields[i])
			break
		}
		key := fmt.Sprintf("%v", fields[i])
		switch v := fields[i+1].(type) {
		case error:
			ev = ev.AnErr(key, v)
		case fmt.Stringer:
			ev = ev.Str(key, v.String())
		default:
			ev = ev.Interface(key, v)
		}
	}
	ev.Msg(msg)
}

func Debug(msg string, fields ...interface{}) {
	if logInstance != nil {
		logInstance.log(DEBUG, msg, fields...)
	}
}

func Info(msg string, fields ...interface{}) {
	if logInstance != nil {
		logInstance.log(INFO, msg, fields...)
	}
}

func Warn(msg string, fields ...interface{}) {
	if logInstance != nil {
		logInstance.log(WARN, msg, fields...)
	}
}

func Error(msg string, fields ...interface{}) {
	if logInstance != nil {
		logInstance.log(ERROR, msg, fields...)
	}
}

func Fatal(msg string, fields ...interface{}) {
	if logInstance != nil {
		logInstance.log(FATAL, msg, fields...)
	}
	os.Exit(1)
}

func LogCommand(username, msg string) {
	Info(msg, "user", username, "kind", "command")
}

func LogButtonClick(username, data string) {
	Info("Button click", "user", username, "data", data)
}

func LogError(username, msg string) {
	Error(msg, "user", username)
}

func Close() {
	if logInstance != nil && logInstance.file != nil {
		logInstance.file.Close()
	}
}

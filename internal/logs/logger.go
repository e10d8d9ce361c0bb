package logs

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger — глобальный логгер приложения (инициализируется через Init).
// До вызова Init указывает на логгер по умолчанию, чтобы тесты и CLI не падали.
var Logger = logrus.New()

// Options — параметры инициализации логгера.
type Options struct {
	Level      string // trace|debug|info|warning|error|fatal
	Format     string // text|json
	File       string // путь к лог-файлу; если пусто — только stdout
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Init настраивает глобальный логгер по переданным опциям.
func Init(opts Options) {
	Logger = New(opts, os.Stdout)
}

// New собирает логгер, пишущий в out (и в файл с ротацией, если задан File).
func New(opts Options, out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetLevel(parseLevel(opts.Level))

	if opts.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if opts.File != "" {
		rot := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
		l.SetOutput(io.MultiWriter(rot, out))
	} else {
		l.SetOutput(out)
	}
	return l
}

func parseLevel(s string) logrus.Level {
	switch s {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warning", "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

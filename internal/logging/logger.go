package logging

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/2beens/gymtracker/pkg"
)

// rotation defaults, the tracker logs little
const (
	defaultMaxSizeMB   = 10
	defaultMaxBackups  = 14
	defaultMaxAgeDays  = 90
	logFileExtension   = ".log"
	sentryTracesSample = 0.2
)

type LoggerSetupParams struct {
	LogFileName      string
	LogToStdout      bool
	LogLevel         string
	LogFormatJSON    bool
	// rotation, zero values take the defaults
	LogMaxSizeMB     int
	LogMaxBackups    int
	LogMaxAgeDays    int
	Environment      string
	SentryEnabled    bool
	SentryDSN        string
	SentryServerName string
}

func Setup(params LoggerSetupParams) {
	if params.LogFormatJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	if params.SentryEnabled {
		err := sentry.Init(sentry.ClientOptions{
			Environment:      params.Environment,
			Dsn:              params.SentryDSN,
			TracesSampleRate: sentryTracesSample,
			ServerName:       params.SentryServerName,
		})
		if err != nil {
			logrus.Errorf("sentry.Init: %s", err)
		} else {
			logrus.AddHook(NewSentryHook([]logrus.Level{
				logrus.PanicLevel,
				logrus.FatalLevel,
				logrus.ErrorLevel,
			}))
			logrus.Infof("sentry set up for %s", params.SentryServerName)
		}
	}

	logrus.SetLevel(GetLevel(params.LogLevel))

	if params.LogFileName == "" {
		logrus.SetOutput(os.Stdout)
		logrus.Debugln("logging to stdout only")
		return
	}

	fileWriter, err := NewRotatingWriter(params)
	if err != nil {
		logrus.SetOutput(os.Stdout)
		logrus.Errorf("log file %s unusable, logging to stdout: %s", params.LogFileName, err)
		return
	}

	if params.LogToStdout {
		logrus.SetOutput(pkg.NewCombinedWriter(os.Stdout, fileWriter))
		logrus.Debugf("logging to stdout and %s", fileWriter.Filename)
	} else {
		logrus.SetOutput(fileWriter)
	}
}

// NewRotatingWriter prepares the log file directory and returns its
// rotating writer. Rotated files are compressed and named in UTC.
func NewRotatingWriter(params LoggerSetupParams) (*lumberjack.Logger, error) {
	fileName := params.LogFileName
	if !strings.HasSuffix(fileName, logFileExtension) {
		fileName += logFileExtension
	}
	if err := pkg.EnsureDir(filepath.Dir(fileName)); err != nil {
		return nil, err
	}

	return &lumberjack.Logger{
		Filename:   fileName,
		MaxSize:    orDefault(params.LogMaxSizeMB, defaultMaxSizeMB),
		MaxBackups: orDefault(params.LogMaxBackups, defaultMaxBackups),
		MaxAge:     orDefault(params.LogMaxAgeDays, defaultMaxAgeDays),
		LocalTime:  false,
		Compress:   true,
	}, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// GetLevel parses a level name, unknown names log at info.
func GetLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}

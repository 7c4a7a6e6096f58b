package logger

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

type Logger struct {
	*logrus.Entry
}

// New builds the process-wide logger. Local environments get a colored text
// formatter, everything else gets JSON for log aggregation.
func New() *Logger {
	base := logrus.New()

	env := os.Getenv("ENVIRONMENT")
	if env == "" || env == "local" {
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
			ForceColors:     true,
		})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	}

	base.SetOutput(os.Stdout)

	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		base.SetLevel(logrus.DebugLevel)
	case "warn":
		base.SetLevel(logrus.WarnLevel)
	case "error":
		base.SetLevel(logrus.ErrorLevel)
	default:
		base.SetLevel(logrus.InfoLevel)
	}

	return &Logger{Entry: logrus.NewEntry(base)}
}

// WithJob attaches the pipeline run identity to every line.
func (l *Logger) WithJob(jobName string) *logrus.Entry {
	return l.WithField("job_name", jobName)
}

// WithStage attaches job and stage names for stage handler logging.
func (l *Logger) WithStage(jobName, stage string) *logrus.Entry {
	return l.WithFields(logrus.Fields{
		"job_name": jobName,
		"stage":    stage,
	})
}

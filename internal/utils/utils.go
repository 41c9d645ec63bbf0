package utils

import (
	"strings"

	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
)

var Log = logrus.New()

func SetLogLevel(level string) {
	// We are not using logrus' trace and panic levels
	switch strings.ToLower(level) {
	case "debug":
		Log.SetLevel(log.DebugLevel)
	case "info":
		Log.SetLevel(log.InfoLevel)
	case "warning", "warn":
		Log.SetLevel(log.WarnLevel)
	case "error":
		Log.SetLevel(log.ErrorLevel)
	case "fatal":
		Log.SetLevel(log.FatalLevel)
	default:
		log.Fatal("Bad error level string")
	}
}

// RetryLogger forwards go-retryablehttp's leveled log calls to Log at debug level.
type RetryLogger struct{}

func (RetryLogger) Error(msg string, kv ...interface{}) { Log.WithFields(kvFields(kv)).Debug(msg) }
func (RetryLogger) Info(msg string, kv ...interface{})  { Log.WithFields(kvFields(kv)).Debug(msg) }
func (RetryLogger) Debug(msg string, kv ...interface{}) { Log.WithFields(kvFields(kv)).Debug(msg) }
func (RetryLogger) Warn(msg string, kv ...interface{})  { Log.WithFields(kvFields(kv)).Debug(msg) }

func kvFields(kv []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields[key] = kv[i+1]
	}
	return fields
}

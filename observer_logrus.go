package policycache

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// NewLogrusObserver reports cache operations as structured log entries.
// Failed operations are logged at warn level, everything else at debug.
// @group Observability
//
// Example: log cache activity
//
//	logger := logrus.New()
//	logger.SetLevel(logrus.DebugLevel)
//	obs := policycache.NewLogrusObserver(logger)
//	_ = obs
func NewLogrusObserver(logger logrus.FieldLogger) Observer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return ObserverFunc(func(_ context.Context, op string, key string, hit bool, err error, dur time.Duration) {
		entry := logger.WithFields(logrus.Fields{
			"op":       op,
			"key":      key,
			"hit":      hit,
			"duration": dur,
		})
		if err != nil {
			entry.WithError(err).Warn("policycache operation failed")
			return
		}
		entry.Debug("policycache operation")
	})
}

package logger

import (
	"github.com/sirupsen/logrus"
)

// SplunkHook mirrors every logrus entry into a SplunkLogger queue.
type SplunkHook struct {
	logger *SplunkLogger
}

func NewSplunkHook(logger *SplunkLogger) *SplunkHook {
	return &SplunkHook{
		logger: logger,
	}
}

func (sh *SplunkHook) Fire(entry *logrus.Entry) error {
	msg, err := entry.String()
	if err != nil {
		return err
	}
	return sh.logger.LogWithTime(entry.Time, msg)
}

func (sh *SplunkHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

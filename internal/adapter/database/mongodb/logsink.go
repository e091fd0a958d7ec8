package mongodb

import (
	"github.com/rs/zerolog"
)

// ZerologSink adapts zerolog to the driver's options.LogSink.
type ZerologSink struct {
	logger zerolog.Logger
}

func NewZerologSink(logger zerolog.Logger) *ZerologSink {
	return &ZerologSink{logger: logger.With().Str("component", "mongo-driver").Logger()}
}

// Info receives driver levels offset so that 0 is info and 1 is debug.
func (s *ZerologSink) Info(level int, message string, keysAndValues ...interface{}) {
	event := s.logger.Info()
	if level > 0 {
		event = s.logger.Debug()
	}

	event.Fields(keysAndValues).Msg(message)
}

func (s *ZerologSink) Error(err error, message string, keysAndValues ...interface{}) {
	s.logger.Error().Err(err).Fields(keysAndValues).Msg(message)
}

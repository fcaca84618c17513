// Package logging implements the async, channel-buffered LogHandler the
// rest of the module depends on, grounded on the teacher's internal.Logger
// but backed by go.uber.org/zap instead of log.Printf.
package logging

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

type Importance string

const (
	Info    Importance = "info"
	Warning Importance = "warning"
	Error   Importance = "error"
	Raw     Importance = "raw"
)

// FeatureLogMessage is one structured log event, optionally persisted by a
// Sink (e.g. a Mongo collection) in addition to being written to stdout.
type FeatureLogMessage struct {
	Time          time.Time
	Feature       string
	ChargePointId string
	Text          string
	Importance    Importance
}

// Sink receives every Warning and Error entry for durable storage; Info
// entries (FeatureEvent, Debug) are not written to it. Optional.
type Sink interface {
	WriteLogMessage(msg *FeatureLogMessage) error
}

type logEvent struct {
	importance Importance
	message    *FeatureLogMessage
}

// Logger implements ocpp/core.Logger (and the wider LogHandler surface
// used across the module) via an async writer goroutine, so a slow sink
// never blocks the OCPP hot path.
type Logger struct {
	zap       *zap.SugaredLogger
	sink      Sink
	debugMode bool
	writer    chan logEvent
}

func New(zapLogger *zap.Logger, debugMode bool) *Logger {
	l := &Logger{
		zap:       zapLogger.Sugar(),
		debugMode: debugMode,
		writer:    make(chan logEvent, 256),
	}
	go l.run()
	return l
}

func (l *Logger) SetSink(sink Sink) { l.sink = sink }

func (l *Logger) run() {
	for event := range l.writer {
		msg := event.message
		text := fmt.Sprintf("[%s] %s: %s", msg.ChargePointId, msg.Feature, msg.Text)
		switch event.importance {
		case Warning:
			l.zap.Warn(text)
		case Error:
			l.zap.Error(text)
		default:
			l.zap.Info(text)
		}
		if l.sink != nil && event.importance != Info {
			if err := l.sink.WriteLogMessage(msg); err != nil {
				l.zap.Errorw("write log message to sink failed", "error", err)
			}
		}
	}
}

func (l *Logger) enqueue(importance Importance, feature, chargePointId, text string) {
	if chargePointId == "" {
		chargePointId = "*"
	}
	l.writer <- logEvent{importance: importance, message: &FeatureLogMessage{
		Time:          time.Now().UTC(),
		Feature:       feature,
		ChargePointId: chargePointId,
		Text:          text,
		Importance:    importance,
	}}
}

func (l *Logger) FeatureEvent(feature, chargePointId, text string) {
	l.enqueue(Info, feature, chargePointId, text)
}

func (l *Logger) Debug(text string) { l.enqueue(Info, "debug", "", text) }
func (l *Logger) Warn(text string)  { l.enqueue(Warning, "warn", "", text) }

func (l *Logger) Error(text string, err error) {
	l.enqueue(Error, "error", "", fmt.Sprintf("%s: %s", text, err))
}

func (l *Logger) RawDataEvent(direction, data string) {
	if l.debugMode {
		l.enqueue(Raw, "raw", "", fmt.Sprintf("%s: %s", direction, data))
	}
}

package log

import (
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"go.viam.com/test"
)

func TestTraceErrorReusesRunID(t *testing.T) {
	logger, hook := logtest.NewNullLogger()

	traceID := TraceError(logger, Fields{RunIDKey: "01J9ZQ3V5N"}, "Failed to send alert")
	test.That(t, traceID, test.ShouldEqual, "01J9ZQ3V5N")

	entry := hook.LastEntry()
	test.That(t, entry, test.ShouldNotBeNil)
	test.That(t, entry.Message, test.ShouldEqual, "Failed to send alert")
	test.That(t, entry.Data["trace_id"], test.ShouldEqual, "01J9ZQ3V5N")
}

func TestTraceErrorGeneratesIDWithoutRunID(t *testing.T) {
	logger, hook := logtest.NewNullLogger()

	traceID := TraceError(logger, Fields{RunIDKey: "unknown"}, "Failed to process image")
	test.That(t, traceID, test.ShouldHaveLength, 36)
	test.That(t, hook.LastEntry().Data["trace_id"], test.ShouldEqual, traceID)
}

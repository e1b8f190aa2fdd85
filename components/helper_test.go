package components

import (
	"testing"

	"github.com/relloyd/empetl/stream"
	"github.com/sirupsen/logrus"
)

// newTestPanicHandler returns a PanicHandlerFunc that saves recovered panic messages on the returned channel.
func newTestPanicHandler() (PanicHandlerFunc, chan string) {
	msgs := make(chan string, 10)
	return func() {
		if r := recover(); r != nil {
			switch x := r.(type) {
			case *logrus.Entry:
				msgs <- x.Message
			case string:
				msgs <- x
			case error:
				msgs <- x.Error()
			default:
				msgs <- "unknown panic"
			}
		}
	}, msgs
}

func checkVal(t *testing.T, got interface{}, want interface{}) {
	t.Helper()
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSafeSend(t *testing.T) {
	out := make(chan stream.Record)
	ctl := make(chan ControlAction, 1)
	responseChan := make(chan error, 1)
	ctl <- ControlAction{Action: Shutdown, ResponseChan: responseChan}
	if ok := safeSend(stream.NewRecord(), out, ctl, sendNilControlResponse); ok {
		t.Fatal("expected safeSend to report shutdown when the output channel is blocked")
	}
	if err := <-responseChan; err != nil {
		t.Fatal("expected nil control response, got ", err)
	}
}

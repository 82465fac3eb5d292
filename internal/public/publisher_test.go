// v2
// internal/public/publisher_test.go
package public

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"homesim/internal/models"
)

type fakeWriter struct {
	msgs chan kafka.Message
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		f.msgs <- m
	}
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishDeliversKeyedMessage(t *testing.T) {
	fw := &fakeWriter{msgs: make(chan kafka.Message, 8)}
	p := newWithWriter(Config{Topic: "home.transitions"}, discard(), fw, fw)
	p.Start(context.Background())
	defer p.Stop(context.Background())

	tr := models.Transition{
		RoomID:    "Living Room",
		Appliance: models.ApplianceAC,
		State:     "COOLING",
		IsOn:      true,
		Timestamp: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		RunID:     "run1",
	}
	p.Publish(tr)

	select {
	case m := <-fw.msgs:
		if string(m.Key) != "Living Room/AC" {
			t.Fatalf("wrong key: %q", m.Key)
		}
		var got models.Transition
		if err := json.Unmarshal(m.Value, &got); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if got.Appliance != tr.Appliance || got.IsOn != tr.IsOn || !got.Timestamp.Equal(tr.Timestamp) {
			t.Fatalf("payload mismatch: %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no message delivered")
	}
}

func TestDisabledPublisherIsNoOp(t *testing.T) {
	p, err := New(Config{}, discard())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	p.Start(context.Background())
	p.Publish(models.Transition{RoomID: "Living Room", Appliance: models.ApplianceAC})
	p.Stop(context.Background())
}

func TestStopIsIdempotent(t *testing.T) {
	fw := &fakeWriter{msgs: make(chan kafka.Message, 8)}
	p := newWithWriter(Config{Topic: "home.transitions"}, discard(), fw, fw)
	p.Start(context.Background())
	p.Stop(context.Background())
	p.Stop(context.Background())
}

func TestNewRequiresLogger(t *testing.T) {
	if _, err := New(Config{}, nil); err == nil {
		t.Fatalf("expected error for nil logger")
	}
}

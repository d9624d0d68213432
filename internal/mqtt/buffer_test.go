package mqtt

import (
	"testing"
)

func TestOutboxEmptyTake(t *testing.T) {
	o := newOutbox(10)
	if got := o.take(); got != nil {
		t.Errorf("expected nil from empty outbox, got %d items", len(got))
	}
}

func TestOutboxKeepsOrder(t *testing.T) {
	o := newOutbox(10)
	for i := 0; i < 5; i++ {
		o.add(pending{topic: "t", payload: []byte{byte(i)}})
	}

	got := o.take()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i, m := range got {
		if m.payload[0] != byte(i) {
			t.Errorf("item %d: payload %d", i, m.payload[0])
		}
	}
	if o.take() != nil {
		t.Error("outbox not emptied")
	}
}

func TestOutboxDropsOldest(t *testing.T) {
	o := newOutbox(5)
	for i := 0; i < 8; i++ {
		o.add(pending{topic: "t", payload: []byte{byte(i)}})
	}
	if o.len() != 5 {
		t.Fatalf("len = %d, want 5", o.len())
	}

	got := o.take()
	for i, m := range got {
		if want := byte(i + 3); m.payload[0] != want {
			t.Errorf("item %d: payload %d, want %d", i, m.payload[0], want)
		}
	}
	if o.dropped != 0 {
		t.Error("drop count not reset by take")
	}
}

func TestOutboxReusable(t *testing.T) {
	o := newOutbox(5)
	o.add(pending{topic: "a"})
	o.take()

	for i := 10; i < 14; i++ {
		o.add(pending{topic: "t", payload: []byte{byte(i)}})
	}
	got := o.take()
	if len(got) != 4 || got[0].payload[0] != 10 || got[3].payload[0] != 13 {
		t.Errorf("unexpected second batch: %+v", got)
	}
}

func TestOutboxZeroLimit(t *testing.T) {
	o := newOutbox(0)
	o.add(pending{topic: "t"})
	if o.len() != 0 {
		t.Error("zero-limit outbox held a message")
	}
}

func TestOutboxPreservesFields(t *testing.T) {
	o := newOutbox(1)
	o.add(pending{
		topic:    TopicSystem,
		payload:  []byte(`{"test":true}`),
		qos:      1,
		retained: true,
	})

	got := o.take()
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	m := got[0]
	if m.topic != TopicSystem || string(m.payload) != `{"test":true}` || m.qos != 1 || !m.retained {
		t.Errorf("fields not preserved: %+v", m)
	}
}

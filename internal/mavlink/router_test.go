package mavlink

import (
	"errors"
	"testing"
)

func TestTable_RegisterOverwrites(t *testing.T) {
	tbl := NewTable()
	var hits []int
	tbl.Register(MsgIDHeartbeat, func(m *Message) error { hits = append(hits, 1); return nil })
	tbl.Register(MsgIDHeartbeat, func(m *Message) error { hits = append(hits, 2); return nil })

	if err := tbl.Dispatch(&Message{MsgID: MsgIDHeartbeat}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(hits) != 1 || hits[0] != 2 {
		t.Fatalf("expected only last handler to run, hits=%v", hits)
	}
}

func TestTable_MissingHandlerIgnored(t *testing.T) {
	tbl := NewTable()
	if err := tbl.Dispatch(&Message{MsgID: 42}); err != nil {
		t.Fatalf("missing handler must not error: %v", err)
	}
}

func TestTable_HandlerErrorPropagates(t *testing.T) {
	tbl := NewTable()
	want := errors.New("boom")
	tbl.Register(MsgIDCommandAck, func(m *Message) error { return want })
	if err := tbl.Dispatch(&Message{MsgID: MsgIDCommandAck}); !errors.Is(err, want) {
		t.Fatalf("expected handler error, got %v", err)
	}
}

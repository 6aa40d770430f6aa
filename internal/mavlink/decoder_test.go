package mavlink

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex fixture: %v", err)
	}
	return b
}

// 来自系统 0xFF / 组件 0xBE 的 v1 心跳帧（外部工具计算的校验和）
const heartbeatFrameHex = "fe0900ffbe000000000006080000032842"

// 来自系统 1 / 组件 1 的 v1 心跳：custom_mode=4，base_mode=0x90（已解锁）
const vehicleHeartbeatHex = "fe0907010100040000000203900403043a"

// 同一载荷的 v2 帧
const v2HeartbeatHex = "fd0900000701010000000400000002039004035a3b"

// v2 带签名帧（incompat=0x01，13字节签名）
const v2SignedHeartbeatHex = "fd0901000801010000000400000002039004033a21"

func TestFeed_SingleHeartbeat(t *testing.T) {
	d := NewDecoder()
	msgs := d.Feed(mustHex(t, heartbeatFrameHex))
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	m := msgs[0]
	if m.Version != V1 || m.SystemID != 0xFF || m.ComponentID != 0xBE || m.MsgID != MsgIDHeartbeat {
		t.Fatalf("unexpected message: %+v", m)
	}
	hb, err := DecodeHeartbeat(m.Payload)
	if err != nil {
		t.Fatalf("decode heartbeat: %v", err)
	}
	if hb.Type != 6 || hb.Autopilot != 8 || hb.CustomMode != 0 {
		t.Fatalf("unexpected heartbeat: %+v", hb)
	}
	if st := d.Stats(); st.Frames != 1 || st.CRCErrors != 0 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestFeed_GarbagePrefix(t *testing.T) {
	// 垃圾前缀中故意混入一个假同步字节
	garbage := []byte{0x00, 0x11, 0xFE, 0x05, 0xAA}
	frame := mustHex(t, heartbeatFrameHex)

	d := NewDecoder()
	msgs := d.Feed(append(garbage, frame...))
	if len(msgs) != 1 {
		t.Fatalf("expected exactly 1 message, got %d", len(msgs))
	}
	if msgs[0].SystemID != 0xFF {
		t.Fatalf("unexpected sender: %+v", msgs[0])
	}
	if st := d.Stats(); st.BytesSkipped == 0 {
		t.Fatalf("expected skipped bytes, stats=%+v", st)
	}
}

func TestFeed_ChunkBoundaryInvariance(t *testing.T) {
	frame := mustHex(t, heartbeatFrameHex)
	whole := NewDecoder().Feed(frame)
	if len(whole) != 1 {
		t.Fatalf("whole feed: expected 1 message, got %d", len(whole))
	}

	for split := 1; split < len(frame); split++ {
		d := NewDecoder()
		msgs := d.Feed(frame[:split])
		msgs = append(msgs, d.Feed(frame[split:])...)
		if len(msgs) != 1 {
			t.Fatalf("split=%d: expected 1 message, got %d", split, len(msgs))
		}
		if !bytes.Equal(msgs[0].Payload, whole[0].Payload) || msgs[0].Checksum != whole[0].Checksum {
			t.Fatalf("split=%d: message differs from whole-chunk decode", split)
		}
	}

	// 逐字节喂入
	d := NewDecoder()
	var got []Message
	for _, b := range frame {
		got = append(got, d.Feed([]byte{b})...)
	}
	if len(got) != 1 {
		t.Fatalf("byte-by-byte: expected 1 message, got %d", len(got))
	}
}

func TestFeed_TwoFramesOneChunk(t *testing.T) {
	buf := append(mustHex(t, heartbeatFrameHex), mustHex(t, vehicleHeartbeatHex)...)
	msgs := NewDecoder().Feed(buf)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].SystemID != 0xFF || msgs[1].SystemID != 0x01 {
		t.Fatalf("unexpected order: %+v", msgs)
	}
}

func TestFeed_ChecksumFailureResync(t *testing.T) {
	corrupt := mustHex(t, heartbeatFrameHex)
	corrupt[8] ^= 0x5A // 载荷中破坏一个字节（不会生成新的同步字节）
	buf := append(corrupt, mustHex(t, vehicleHeartbeatHex)...)

	d := NewDecoder()
	msgs := d.Feed(buf)
	if len(msgs) != 1 {
		t.Fatalf("expected only the valid frame, got %d messages", len(msgs))
	}
	if msgs[0].SystemID != 0x01 {
		t.Fatalf("decoded wrong frame: %+v", msgs[0])
	}
	if st := d.Stats(); st.CRCErrors == 0 {
		t.Fatalf("expected crc error counted, stats=%+v", st)
	}
}

func TestFeed_UnknownMsgIDRejected(t *testing.T) {
	// 结构完好但消息ID未知（无 crcExtra 种子），应按帧错误重新同步
	raw := []byte{0xFE, 0x01, 0x00, 0x01, 0x01, 0xC8, 0xAA, 0x12, 0x34}
	d := NewDecoder()
	if msgs := d.Feed(raw); len(msgs) != 0 {
		t.Fatalf("expected no messages, got %d", len(msgs))
	}
	if st := d.Stats(); st.CRCErrors == 0 {
		t.Fatalf("expected crc error counted, stats=%+v", st)
	}
}

func TestFeed_TrailingPartialBuffered(t *testing.T) {
	frame := mustHex(t, vehicleHeartbeatHex)
	d := NewDecoder()
	if msgs := d.Feed(frame[:10]); len(msgs) != 0 {
		t.Fatalf("partial frame must not emit, got %d", len(msgs))
	}
	msgs := d.Feed(frame[10:])
	if len(msgs) != 1 {
		t.Fatalf("expected buffered frame to complete, got %d", len(msgs))
	}
	hb, err := DecodeHeartbeat(msgs[0].Payload)
	if err != nil {
		t.Fatalf("decode heartbeat: %v", err)
	}
	if hb.CustomMode != 4 || !hb.Armed() {
		t.Fatalf("unexpected heartbeat: %+v", hb)
	}
}

func TestFeed_V2Frame(t *testing.T) {
	msgs := NewDecoder().Feed(mustHex(t, v2HeartbeatHex))
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	m := msgs[0]
	if m.Version != V2 || m.SystemID != 1 || m.MsgID != MsgIDHeartbeat {
		t.Fatalf("unexpected message: %+v", m)
	}
	hb, err := DecodeHeartbeat(m.Payload)
	if err != nil {
		t.Fatalf("decode heartbeat: %v", err)
	}
	if hb.CustomMode != 4 || hb.BaseMode != 0x90 {
		t.Fatalf("unexpected heartbeat: %+v", hb)
	}
}

func TestFeed_V2SignedFrame(t *testing.T) {
	frame := mustHex(t, v2SignedHeartbeatHex)
	frame = append(frame, make([]byte, 13)...) // 签名仅消费，不校验
	msgs := NewDecoder().Feed(frame)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Version != V2 {
		t.Fatalf("unexpected version: %+v", msgs[0])
	}
}

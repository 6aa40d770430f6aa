package transport

import (
	"bytes"
	"errors"
	"net"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestTCP(t *testing.T, addr string) *TCPChannel {
	t.Helper()
	c := NewTCP(addr, time.Second, zap.NewNop())
	c.retryWait = 10 * time.Millisecond // 测试中缩短重连延迟
	return c
}

func TestTCP_SendReceive(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	// 回显服务
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 256)
		n, _ := conn.Read(buf)
		if n > 0 {
			_, _ = conn.Write(buf[:n])
		}
	}()

	c := newTestTCP(t, ln.Addr().String())
	if err := c.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	payload := []byte{0xFE, 0x01, 0x02, 0x03}
	if err := c.Send(payload); err != nil {
		t.Fatalf("send: %v", err)
	}

	var got []byte
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && got == nil {
		chunk, err := c.Receive(100 * time.Millisecond)
		if err != nil {
			t.Fatalf("receive: %v", err)
		}
		got = chunk
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("echo mismatch: got %x want %x", got, payload)
	}
}

func TestTCP_ReceiveTimeoutIsNotError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		conn, _ := ln.Accept()
		if conn != nil {
			defer conn.Close()
			time.Sleep(500 * time.Millisecond)
		}
	}()

	c := newTestTCP(t, ln.Addr().String())
	if err := c.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	chunk, err := c.Receive(50 * time.Millisecond)
	if err != nil {
		t.Fatalf("timeout must not be an error: %v", err)
	}
	if chunk != nil {
		t.Fatalf("expected no data, got %x", chunk)
	}
}

func TestTCP_ReconnectOnceOnPeerClose(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	// 第一条连接立即被服务端关闭；之后的连接保持打开
	accepted := make(chan net.Conn, 4)
	go func() {
		first := true
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			if first {
				first = false
				conn.Close()
				continue
			}
			accepted <- conn
		}
	}()

	c := newTestTCP(t, ln.Addr().String())
	reconnects := 0
	c.SetOnReconnect(func() { reconnects++ })
	if err := c.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	// 对端关闭 → 读到 EOF → 自动重连一次，本次按无数据返回
	var rerr error
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && reconnects == 0 {
		if _, rerr = c.Receive(50 * time.Millisecond); rerr != nil {
			break
		}
	}
	if rerr != nil {
		t.Fatalf("reconnect should absorb the failure: %v", rerr)
	}
	if reconnects != 1 {
		t.Fatalf("expected exactly 1 automatic reconnect, got %d", reconnects)
	}
	if !c.Connected() {
		t.Fatalf("channel should be live after reconnect")
	}

	select {
	case conn := <-accepted:
		conn.Close()
	case <-time.After(time.Second):
		t.Fatalf("server never saw the reconnect")
	}
}

func TestTCP_SecondConsecutiveFailureSurfaces(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	connC := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			connC <- conn
		}
	}()

	c := newTestTCP(t, ln.Addr().String())
	if err := c.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	var server net.Conn
	select {
	case server = <-connC:
	case <-time.After(time.Second):
		t.Fatalf("no server conn")
	}

	// 服务端关闭连接并停止监听：自动重连必然失败并上抛
	server.Close()
	ln.Close()

	var rerr error
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, rerr = c.Receive(50 * time.Millisecond); rerr != nil {
			break
		}
	}
	if rerr == nil {
		t.Fatalf("expected surfaced failure after failed reconnect")
	}
	if !errors.Is(rerr, ErrDisconnected) && !errors.Is(rerr, ErrReceiveFailed) {
		t.Fatalf("expected receive-side failure, got %v", rerr)
	}
	if c.Connected() {
		t.Fatalf("channel must report down after failed reconnect")
	}
}

func TestTCP_ClosedChannelRejectsOps(t *testing.T) {
	c := newTestTCP(t, "127.0.0.1:1")
	_ = c.Close()
	if err := c.Send([]byte{1}); !errors.Is(err, ErrClosed) {
		t.Fatalf("send after close: %v", err)
	}
	if _, err := c.Receive(10 * time.Millisecond); !errors.Is(err, ErrClosed) {
		t.Fatalf("receive after close: %v", err)
	}
	if err := c.Connect(); !errors.Is(err, ErrClosed) {
		t.Fatalf("connect after close: %v", err)
	}
}

func TestUDP_SendReceive(t *testing.T) {
	// 回显服务
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen packet: %v", err)
	}
	defer pc.Close()
	go func() {
		buf := make([]byte, 256)
		n, addr, err := pc.ReadFrom(buf)
		if err == nil && n > 0 {
			_, _ = pc.WriteTo(buf[:n], addr)
		}
	}()

	c := NewUDP("127.0.0.1:0", pc.LocalAddr().String(), zap.NewNop())
	if err := c.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	payload := []byte{0xFD, 0x09, 0x00}
	if err := c.Send(payload); err != nil {
		t.Fatalf("send: %v", err)
	}
	var got []byte
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && got == nil {
		chunk, err := c.Receive(100 * time.Millisecond)
		if err != nil {
			t.Fatalf("receive: %v", err)
		}
		got = chunk
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("echo mismatch: got %x want %x", got, payload)
	}
}

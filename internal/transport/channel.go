package transport

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var (
	ErrConnectFailed  = errors.New("transport: connect failed")
	ErrSendFailed     = errors.New("transport: send failed")
	ErrReceiveFailed  = errors.New("transport: receive failed")
	ErrDisconnected   = errors.New("transport: disconnected")
	ErrClosed         = errors.New("transport: closed")
	ErrUnknownNetwork = errors.New("transport: unknown network")
)

// 重连前的固定等待
const reconnectDelay = time.Second

// Channel 与远端的字节流通道；唯一的套接字句柄由实现独占持有。
// Receive 超时返回 (nil, nil)，表示无数据而非错误。
// 并发的 Send 调用不做串行化，由调用方保证同一时刻至多一个在途写。
type Channel interface {
	Connect() error
	Send(p []byte) error
	Receive(timeout time.Duration) ([]byte, error)
	Close() error
	Connected() bool
	RemoteAddr() string
}

// New 按网络类型创建通道
func New(network, localAddr, remoteAddr string, dialTimeout time.Duration, logger *zap.Logger) (Channel, error) {
	switch network {
	case "tcp":
		return NewTCP(remoteAddr, dialTimeout, logger), nil
	case "udp":
		return NewUDP(localAddr, remoteAddr, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownNetwork, network)
	}
}

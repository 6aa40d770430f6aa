package transport

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	tcpBufSize      = 32 << 10
	keepAlivePeriod = 30 * time.Second
	recvBufLen      = 2048
)

// TCPChannel 面向连接的 TCP 通道。
// 检测到断链时按固定延迟自动重拨最近一次端点，单次操作至多重连一次；
// 连续第二次失败原样上抛，由上层决定重试。
type TCPChannel struct {
	addr        string
	dialTimeout time.Duration
	retryWait   time.Duration
	log         *zap.Logger

	mu     sync.Mutex // 保护 conn/alive/closed
	conn   net.Conn
	alive  bool
	closed bool

	readBuf     []byte
	onReconnect func()
}

// NewTCP 创建 TCP 通道（不主动拨号）
func NewTCP(addr string, dialTimeout time.Duration, logger *zap.Logger) *TCPChannel {
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TCPChannel{
		addr:        addr,
		dialTimeout: dialTimeout,
		retryWait:   reconnectDelay,
		log:         logger,
		readBuf:     make([]byte, recvBufLen),
	}
}

// SetOnReconnect 安装自动重连成功后的回调（指标上报用）
func (c *TCPChannel) SetOnReconnect(fn func()) { c.onReconnect = fn }

// Connect 建立连接；解析或连接失败返回 ErrConnectFailed
func (c *TCPChannel) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return c.dialLocked()
}

func (c *TCPChannel) dialLocked() error {
	conn, err := net.DialTimeout("tcp", c.addr, c.dialTimeout)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", ErrConnectFailed, c.addr, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		// 保活开启、关闭合批（低延迟优先）、限定收发缓冲
		_ = tc.SetKeepAlive(true)
		_ = tc.SetKeepAlivePeriod(keepAlivePeriod)
		_ = tc.SetNoDelay(true)
		_ = tc.SetReadBuffer(tcpBufSize)
		_ = tc.SetWriteBuffer(tcpBufSize)
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = conn
	c.alive = true
	return nil
}

// reconnectLocked 固定延迟后重拨最近端点
func (c *TCPChannel) reconnectLocked() error {
	if c.closed {
		return ErrClosed
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.alive = false
	time.Sleep(c.retryWait)
	if err := c.dialLocked(); err != nil {
		return err
	}
	c.log.Info("transport reconnected", zap.String("addr", c.addr))
	if c.onReconnect != nil {
		c.onReconnect()
	}
	return nil
}

// Send 写出整个缓冲区。发送前先检查缓存的连接存活状态；
// 检测到断链自动重连一次后重试，仍失败则上抛。
func (c *TCPChannel) Send(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	reconnected := false
	if !c.alive {
		if err := c.reconnectLocked(); err != nil {
			return err
		}
		reconnected = true
	}

	err := c.writeLocked(p)
	if err == nil {
		return nil
	}
	if !reconnected {
		if rerr := c.reconnectLocked(); rerr != nil {
			return rerr
		}
		if err = c.writeLocked(p); err == nil {
			return nil
		}
	}
	c.alive = false
	return fmt.Errorf("%w: %v", ErrSendFailed, err)
}

// writeLocked net.Conn.Write 保证写完或报错，无需自行处理短写
func (c *TCPChannel) writeLocked(p []byte) error {
	if c.conn == nil {
		return ErrDisconnected
	}
	_, err := c.conn.Write(p)
	if err != nil {
		c.alive = false
	}
	return err
}

// Receive 限时读取一段字节。超时返回 (nil, nil)；
// 对端关闭或读错误先自动重连一次，重连成功则本次按无数据返回。
func (c *TCPChannel) Receive(timeout time.Duration) ([]byte, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if !c.alive {
		if err := c.reconnectLocked(); err != nil {
			c.mu.Unlock()
			return nil, err
		}
	}
	conn := c.conn
	c.mu.Unlock()

	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	n, err := conn.Read(c.readBuf)
	if n > 0 {
		out := make([]byte, n)
		copy(out, c.readBuf[:n])
		return out, nil
	}
	if err == nil {
		return nil, nil
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return nil, nil
	}

	// 断链：按策略自动重连一次
	c.mu.Lock()
	c.alive = false
	rerr := c.reconnectLocked()
	c.mu.Unlock()
	if rerr == nil {
		return nil, nil
	}
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: peer closed", ErrDisconnected)
	}
	return nil, fmt.Errorf("%w: %v", ErrReceiveFailed, err)
}

// Connected 返回缓存的连接存活状态
func (c *TCPChannel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive && !c.closed
}

// RemoteAddr 返回目标端点
func (c *TCPChannel) RemoteAddr() string { return c.addr }

// Close 关闭通道；之后所有操作返回 ErrClosed
func (c *TCPChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.alive = false
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

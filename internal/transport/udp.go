package transport

import (
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

// UDPChannel 连接式 UDP 通道：本地绑定固定端口，对端地址固定。
// 无连接语义下“重连”即重建套接字，复用与 TCP 相同的单次重试策略。
type UDPChannel struct {
	localAddr  string
	remoteAddr string
	retryWait  time.Duration
	log        *zap.Logger

	mu     sync.Mutex
	conn   *net.UDPConn
	alive  bool
	closed bool

	readBuf     []byte
	onReconnect func()
}

// NewUDP 创建 UDP 通道（不主动绑定）
func NewUDP(localAddr, remoteAddr string, logger *zap.Logger) *UDPChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UDPChannel{
		localAddr:  localAddr,
		remoteAddr: remoteAddr,
		retryWait:  reconnectDelay,
		log:        logger,
		readBuf:    make([]byte, recvBufLen),
	}
}

// SetOnReconnect 安装自动重连成功后的回调
func (c *UDPChannel) SetOnReconnect(fn func()) { c.onReconnect = fn }

// Connect 绑定本地地址并固定对端
func (c *UDPChannel) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return c.dialLocked()
}

func (c *UDPChannel) dialLocked() error {
	raddr, err := net.ResolveUDPAddr("udp", c.remoteAddr)
	if err != nil {
		return fmt.Errorf("%w: resolve %s: %v", ErrConnectFailed, c.remoteAddr, err)
	}
	var laddr *net.UDPAddr
	if c.localAddr != "" {
		if laddr, err = net.ResolveUDPAddr("udp", c.localAddr); err != nil {
			return fmt.Errorf("%w: resolve %s: %v", ErrConnectFailed, c.localAddr, err)
		}
	}
	conn, err := net.DialUDP("udp", laddr, raddr)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", ErrConnectFailed, c.remoteAddr, err)
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = conn
	c.alive = true
	return nil
}

func (c *UDPChannel) reconnectLocked() error {
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
	c.log.Info("transport reconnected", zap.String("addr", c.remoteAddr))
	if c.onReconnect != nil {
		c.onReconnect()
	}
	return nil
}

// Send 发送一个数据报；失败自动重建套接字一次后重试
func (c *UDPChannel) Send(p []byte) error {
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
	if c.conn == nil {
		return ErrDisconnected
	}
	_, err := c.conn.Write(p)
	if err == nil {
		return nil
	}
	if !reconnected {
		if rerr := c.reconnectLocked(); rerr != nil {
			return rerr
		}
		if _, err = c.conn.Write(p); err == nil {
			return nil
		}
	}
	c.alive = false
	return fmt.Errorf("%w: %v", ErrSendFailed, err)
}

// Receive 限时读取一个数据报；超时返回 (nil, nil)
func (c *UDPChannel) Receive(timeout time.Duration) ([]byte, error) {
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

	c.mu.Lock()
	c.alive = false
	rerr := c.reconnectLocked()
	c.mu.Unlock()
	if rerr == nil {
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrReceiveFailed, err)
}

// Connected 返回缓存的存活状态
func (c *UDPChannel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive && !c.closed
}

// RemoteAddr 返回目标端点
func (c *UDPChannel) RemoteAddr() string { return c.remoteAddr }

// Close 关闭通道
func (c *UDPChannel) Close() error {
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

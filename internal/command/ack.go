package command

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Result 命令回执结果码（COMMAND_ACK.result）
type Result uint8

const (
	ResultAccepted            Result = 0
	ResultTemporarilyRejected Result = 1
	ResultDenied              Result = 2
	ResultUnsupported         Result = 3
	ResultFailed              Result = 4
	ResultInProgress          Result = 5
)

// String 未知结果码原样透传为 UNKNOWN_n
func (r Result) String() string {
	switch r {
	case ResultAccepted:
		return "ACCEPTED"
	case ResultTemporarilyRejected:
		return "TEMPORARILY_REJECTED"
	case ResultDenied:
		return "DENIED"
	case ResultUnsupported:
		return "UNSUPPORTED"
	case ResultFailed:
		return "FAILED"
	case ResultInProgress:
		return "IN_PROGRESS"
	default:
		return fmt.Sprintf("UNKNOWN_%d", uint8(r))
	}
}

// ErrNotAcknowledged 等待超时，未观察到回执
var ErrNotAcknowledged = errors.New("command: not acknowledged")

// ErrNoPending 该命令ID没有在途等待记录
var ErrNoPending = errors.New("command: no pending command")

// Ack 一次观察到的命令回执
type Ack struct {
	Command uint16
	Result  Result
	At      time.Time
}

// AckTracker 按命令ID关联最近一次回执。
// 协议不含事务ID，关联只能是尽力而为的近似：回执按命令ID匹配
// 最近一次发出的同ID命令，同一命令ID同时只应有一个在途命令。
type AckTracker struct {
	mu      sync.Mutex
	last    map[uint16]Ack
	pending map[uint16]chan Ack
}

// NewAckTracker 创建回执跟踪器
func NewAckTracker() *AckTracker {
	return &AckTracker{
		last:    make(map[uint16]Ack),
		pending: make(map[uint16]chan Ack),
	}
}

// Issue 记录一次命令发出：清除该ID此前的回执，重置等待通道。
// 同ID旧的在途等待被覆盖（协议无法区分两者的回执）。
func (t *AckTracker) Issue(cmd uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.last, cmd)
	t.pending[cmd] = make(chan Ack, 1)
}

// Observe 由接收分发路径调用；未匹配到在途命令的回执同样被记录
func (t *AckTracker) Observe(cmd uint16, result uint8) {
	a := Ack{Command: cmd, Result: Result(result), At: time.Now()}
	t.mu.Lock()
	t.last[cmd] = a
	ch := t.pending[cmd]
	t.mu.Unlock()
	if ch != nil {
		select {
		case ch <- a:
		default:
		}
	}
}

// Last 返回该命令ID自最近一次 Issue 之后观察到的回执
func (t *AckTracker) Last(cmd uint16) (Ack, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.last[cmd]
	return a, ok
}

// Await 阻塞等待该命令ID的下一个回执；须先 Issue
func (t *AckTracker) Await(cmd uint16, timeout time.Duration) (Ack, error) {
	t.mu.Lock()
	ch := t.pending[cmd]
	t.mu.Unlock()
	if ch == nil {
		return Ack{}, fmt.Errorf("%w: %d", ErrNoPending, cmd)
	}
	select {
	case a := <-ch:
		return a, nil
	case <-time.After(timeout):
		return Ack{}, fmt.Errorf("%w: command %d", ErrNotAcknowledged, cmd)
	}
}

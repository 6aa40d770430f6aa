package mavlink

import "sync"

// Handler 消息处理器；在接收分发协程上同步执行，不应做阻塞IO
type Handler func(m *Message) error

// Table 路由表（msgId -> handler），后注册覆盖先注册
type Table struct {
	mu       sync.RWMutex
	handlers map[uint32]Handler
}

// NewTable 创建路由表
func NewTable() *Table { return &Table{handlers: make(map[uint32]Handler)} }

// Register 安装处理器；同一消息ID仅保留最后一次注册
func (t *Table) Register(msgID uint32, h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[msgID] = h
}

// Dispatch 同步分发；未注册的消息静默忽略
func (t *Table) Dispatch(m *Message) error {
	t.mu.RLock()
	h := t.handlers[m.MsgID]
	t.mu.RUnlock()
	if h == nil {
		return nil
	}
	return h(m)
}

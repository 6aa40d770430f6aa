package link

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taoyao-code/uav-gcs/internal/command"
	cfgpkg "github.com/taoyao-code/uav-gcs/internal/config"
	"github.com/taoyao-code/uav-gcs/internal/mavlink"
	"github.com/taoyao-code/uav-gcs/internal/metrics"
	"github.com/taoyao-code/uav-gcs/internal/state"
	"github.com/taoyao-code/uav-gcs/internal/transport"
)

// Session 一条地面站到飞行器的链路会话：
// 接收分发循环 + 心跳保活循环 + 并发可读的共享状态。
// 传输层故障不会终止会话；是否放弃由调用方决定。
type Session struct {
	id  string
	cfg cfgpkg.LinkConfig
	ch  transport.Channel
	dec *mavlink.Decoder
	tbl *mavlink.Table
	st  *state.State
	ack *command.AckTracker
	m   *metrics.AppMetrics
	log *zap.Logger

	// 出站写串行化；seq 随之受保护
	sendMu sync.Mutex
	seq    uint8

	stopC     chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once

	lastDecStats mavlink.DecoderStats
}

// NewSession 创建会话（不主动连接）；m 可为 nil
func NewSession(cfg cfgpkg.LinkConfig, ch transport.Channel, m *metrics.AppMetrics, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.HeartbeatPeriod <= 0 {
		cfg.HeartbeatPeriod = time.Second
	}
	if cfg.ReceiveTimeout <= 0 {
		cfg.ReceiveTimeout = 100 * time.Millisecond
	}
	s := &Session{
		id:    uuid.NewString(),
		cfg:   cfg,
		ch:    ch,
		dec:   mavlink.NewDecoder(),
		tbl:   mavlink.NewTable(),
		st:    state.New(),
		ack:   command.NewAckTracker(),
		m:     m,
		stopC: make(chan struct{}),
	}
	s.log = logger.With(zap.String("session_id", s.id))
	s.registerHandlers()
	return s
}

// ID 会话标识
func (s *Session) ID() string { return s.id }

// State 共享状态（任意协程可读）
func (s *Session) State() *state.State { return s.st }

// Acks 命令回执跟踪器
func (s *Session) Acks() *command.AckTracker { return s.ack }

// Register 安装或覆盖某消息ID的处理器（后注册覆盖）
func (s *Session) Register(msgID uint32, h mavlink.Handler) { s.tbl.Register(msgID, h) }

// Start 建立传输连接并启动接收/心跳两个循环
func (s *Session) Start() error {
	if err := s.ch.Connect(); err != nil {
		return err
	}
	s.setConnected(true)
	s.log.Info("link connected", zap.String("remote", s.ch.RemoteAddr()))

	s.wg.Add(2)
	go s.receiveLoop()
	go s.heartbeatLoop()

	// 立即自报身份，不等第一个心跳周期
	if err := s.sendHeartbeat(); err != nil {
		s.log.Warn("initial heartbeat failed", zap.Error(err))
	}
	return nil
}

// Close 发出停止信号，等待两个循环退出后关闭传输并清零状态。
// 阻塞时间受接收超时与心跳周期约束。
func (s *Session) Close() error {
	s.closeOnce.Do(func() { close(s.stopC) })
	s.wg.Wait()
	err := s.ch.Close()
	s.st.Reset()
	s.log.Info("link closed")
	return err
}

// Send 编码并发送一条消息；所有出站写经由此处串行化
func (s *Session) Send(msgID uint32, payload []byte) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	frame, err := mavlink.BuildV1(s.seq, s.cfg.SystemID, s.cfg.ComponentID, msgID, payload)
	if err != nil {
		return err
	}
	s.seq++
	if err := s.ch.Send(frame); err != nil {
		s.setConnected(false)
		return err
	}
	s.setConnected(true)
	if s.m != nil {
		s.m.BytesSent.Add(float64(len(frame)))
	}
	return nil
}

// receiveLoop 限时收包、流式解码、按序同步分发
func (s *Session) receiveLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.stopC:
			return
		default:
		}

		chunk, err := s.ch.Receive(s.cfg.ReceiveTimeout)
		if err != nil {
			// 传输层内部已做过一次自动重连；这里只降级状态，不终止会话
			s.setConnected(false)
			if s.m != nil {
				s.m.ReceiveErrorTotal.Inc()
			}
			s.log.Warn("receive failed", zap.Error(err))
			continue
		}
		if chunk == nil {
			continue
		}
		s.setConnected(true)
		if s.m != nil {
			s.m.BytesReceived.Add(float64(len(chunk)))
		}

		for _, msg := range s.dec.Feed(chunk) {
			m := msg
			if s.m != nil {
				s.m.DispatchTotal.WithLabelValues(fmt.Sprintf("%d", m.MsgID)).Inc()
			}
			if err := s.tbl.Dispatch(&m); err != nil {
				s.log.Warn("handler error", zap.Uint32("msgid", m.MsgID), zap.Error(err))
			}
		}
		s.syncDecoderMetrics()
	}
}

// heartbeatLoop 固定节拍自报身份；链路状态如何不影响发送节奏
func (s *Session) heartbeatLoop() {
	defer s.wg.Done()
	t := time.NewTicker(s.cfg.HeartbeatPeriod)
	defer t.Stop()
	for {
		select {
		case <-s.stopC:
			return
		case <-t.C:
			if err := s.sendHeartbeat(); err != nil {
				s.log.Warn("heartbeat send failed", zap.Error(err))
				continue
			}
			if s.m != nil {
				s.m.HeartbeatSent.Inc()
			}
		}
	}
}

func (s *Session) sendHeartbeat() error {
	hb := mavlink.Heartbeat{
		Type:           mavlink.TypeGCS,
		Autopilot:      mavlink.AutopilotInvalid,
		SystemStatus:   mavlink.StateActive,
		MavlinkVersion: mavlink.ProtocolVersion,
	}
	return s.Send(mavlink.MsgIDHeartbeat, hb.Pack())
}

func (s *Session) setConnected(v bool) {
	s.st.SetConnected(v)
	if s.m != nil {
		if v {
			s.m.LinkUp.Set(1)
		} else {
			s.m.LinkUp.Set(0)
		}
	}
}

// syncDecoderMetrics 将解码器实例计数的增量上报到指标
func (s *Session) syncDecoderMetrics() {
	if s.m == nil {
		return
	}
	cur := s.dec.Stats()
	prev := s.lastDecStats
	if d := cur.Frames - prev.Frames; d > 0 {
		s.m.FrameParseTotal.WithLabelValues("ok").Add(float64(d))
	}
	if d := cur.CRCErrors - prev.CRCErrors; d > 0 {
		s.m.FrameParseTotal.WithLabelValues("crc_error").Add(float64(d))
	}
	if d := cur.BytesSkipped - prev.BytesSkipped; d > 0 {
		s.m.SyncBytesSkipped.Add(float64(d))
	}
	s.lastDecStats = cur
}

package state

import (
	"math"
	"sync/atomic"
	"time"
)

// target 打包：bit16 有效标志 | sysId<<8 | compId
const targetValid = uint32(1) << 16

// State 链路与飞行器状态快照。
// 所有字段仅由接收分发协程写入，任意协程可原子读取：
// 读到的值可能滞后一个分发周期，但单字段永远不会读到撕裂值。
type State struct {
	connected    atomic.Bool
	armed        atomic.Bool
	flightMode   atomic.Uint32
	altitudeBits atomic.Uint64 // math.Float64bits
	target       atomic.Uint32 // 一次性捕获，见 CaptureTarget
	lastHeartbeat atomic.Int64 // unix nano；0=未收到
	statusText   atomic.Pointer[string]
}

// New 创建全零状态
func New() *State { return &State{} }

// SetConnected 更新传输连接状态
func (s *State) SetConnected(v bool) { s.connected.Store(v) }

// Connected 传输连接是否存活
func (s *State) Connected() bool { return s.connected.Load() }

// CaptureTarget 粘性捕获目标系统/组件：仅第一次调用生效，
// 之后直到 Reset 为止不再改写。返回是否为本次捕获。
func (s *State) CaptureTarget(sysID, compID uint8) bool {
	packed := targetValid | uint32(sysID)<<8 | uint32(compID)
	return s.target.CompareAndSwap(0, packed)
}

// Target 返回已捕获的目标；ok=false 表示尚未捕获
func (s *State) Target() (sysID, compID uint8, ok bool) {
	v := s.target.Load()
	if v&targetValid == 0 {
		return 0, 0, false
	}
	return uint8(v >> 8), uint8(v), true
}

// Linked 是否已观察到对端心跳并捕获目标
func (s *State) Linked() bool { return s.target.Load()&targetValid != 0 }

// SetArmed 更新解锁标志
func (s *State) SetArmed(v bool) { s.armed.Store(v) }

// Armed 飞行器是否解锁
func (s *State) Armed() bool { return s.armed.Load() }

// SetFlightMode 更新飞行模式（custom_mode）
func (s *State) SetFlightMode(mode uint32) { s.flightMode.Store(mode) }

// FlightMode 当前飞行模式
func (s *State) FlightMode() uint32 { return s.flightMode.Load() }

// SetAltitudeMeters 更新相对高度（米）
func (s *State) SetAltitudeMeters(m float64) { s.altitudeBits.Store(math.Float64bits(m)) }

// AltitudeMeters 相对高度（米）
func (s *State) AltitudeMeters() float64 { return math.Float64frombits(s.altitudeBits.Load()) }

// ObserveHeartbeat 记录最近一次对端心跳时间
func (s *State) ObserveHeartbeat(t time.Time) { s.lastHeartbeat.Store(t.UnixNano()) }

// LastHeartbeat 最近一次对端心跳时间；零值表示尚未收到
func (s *State) LastHeartbeat() time.Time {
	ns := s.lastHeartbeat.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// SetStatusText 记录最近一条飞控文本告警
func (s *State) SetStatusText(txt string) { s.statusText.Store(&txt) }

// StatusText 最近一条飞控文本告警
func (s *State) StatusText() string {
	if p := s.statusText.Load(); p != nil {
		return *p
	}
	return ""
}

// Reset 会话关闭时整体清零（包括粘性目标）
func (s *State) Reset() {
	s.connected.Store(false)
	s.armed.Store(false)
	s.flightMode.Store(0)
	s.altitudeBits.Store(0)
	s.target.Store(0)
	s.lastHeartbeat.Store(0)
	s.statusText.Store(nil)
}

// Snapshot 对外展示用的一致性尽力快照
type Snapshot struct {
	Connected       bool      `json:"connected"`
	Linked          bool      `json:"linked"`
	Armed           bool      `json:"armed"`
	FlightMode      uint32    `json:"flightMode"`
	AltitudeMeters  float64   `json:"altitudeMeters"`
	TargetSystem    uint8     `json:"targetSystem"`
	TargetComponent uint8     `json:"targetComponent"`
	LastHeartbeat   time.Time `json:"lastHeartbeat"`
	StatusText      string    `json:"statusText,omitempty"`
}

// Snapshot 读取当前各字段（逐字段原子读取，无锁）
func (s *State) Snapshot() Snapshot {
	sys, comp, _ := s.Target()
	return Snapshot{
		Connected:       s.Connected(),
		Linked:          s.Linked(),
		Armed:           s.Armed(),
		FlightMode:      s.FlightMode(),
		AltitudeMeters:  s.AltitudeMeters(),
		TargetSystem:    sys,
		TargetComponent: comp,
		LastHeartbeat:   s.LastHeartbeat(),
		StatusText:      s.StatusText(),
	}
}

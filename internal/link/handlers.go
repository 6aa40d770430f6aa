package link

import (
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/uav-gcs/internal/command"
	"github.com/taoyao-code/uav-gcs/internal/mavlink"
)

func commandResultLabel(r uint8) string { return command.Result(r).String() }

// registerHandlers 安装接收分发路径的状态更新处理器。
// 处理器在接收协程上同步执行，只做状态写入与计数，不做阻塞IO。
func (s *Session) registerHandlers() {
	s.tbl.Register(mavlink.MsgIDHeartbeat, s.onHeartbeat)
	s.tbl.Register(mavlink.MsgIDGlobalPositionInt, s.onGlobalPosition)
	s.tbl.Register(mavlink.MsgIDCommandAck, s.onCommandAck)
	s.tbl.Register(mavlink.MsgIDStatusText, s.onStatusText)
}

// onHeartbeat 第一个来自非本机系统的心跳完成目标粘性捕获；
// 此后每个有效心跳刷新解锁标志与飞行模式。
func (s *Session) onHeartbeat(m *mavlink.Message) error {
	hb, err := mavlink.DecodeHeartbeat(m.Payload)
	if err != nil {
		return err
	}
	if m.SystemID == s.cfg.SystemID {
		// 本机心跳回环，忽略
		return nil
	}

	if s.st.CaptureTarget(m.SystemID, m.ComponentID) {
		s.log.Info("target captured",
			zap.Uint8("system", m.SystemID),
			zap.Uint8("component", m.ComponentID),
			zap.Uint8("type", hb.Type),
			zap.Uint8("autopilot", hb.Autopilot))
	}

	armed := hb.Armed()
	if armed != s.st.Armed() {
		s.log.Info("armed state changed", zap.Bool("armed", armed))
	}
	s.st.SetArmed(armed)
	s.st.SetFlightMode(hb.CustomMode)
	s.st.ObserveHeartbeat(time.Now())
	if s.m != nil {
		s.m.HeartbeatReceived.Inc()
	}
	return nil
}

// onGlobalPosition 相对高度由协议毫米换算为米
func (s *Session) onGlobalPosition(m *mavlink.Message) error {
	pos, err := mavlink.DecodeGlobalPositionInt(m.Payload)
	if err != nil {
		return err
	}
	s.st.SetAltitudeMeters(pos.RelativeAltMeters())
	return nil
}

// onCommandAck 回执只进跟踪器，不改动任何心跳派生状态
func (s *Session) onCommandAck(m *mavlink.Message) error {
	ack, err := mavlink.DecodeCommandAck(m.Payload)
	if err != nil {
		return err
	}
	s.ack.Observe(ack.Command, ack.Result)
	if s.m != nil {
		s.m.CommandAckTotal.WithLabelValues(commandResultLabel(ack.Result)).Inc()
	}
	s.log.Info("command ack",
		zap.Uint16("command", ack.Command),
		zap.String("result", commandResultLabel(ack.Result)))
	return nil
}

func (s *Session) onStatusText(m *mavlink.Message) error {
	st, err := mavlink.DecodeStatusText(m.Payload)
	if err != nil {
		return err
	}
	s.st.SetStatusText(st.Text)
	s.log.Info("statustext", zap.Uint8("severity", st.Severity), zap.String("text", st.Text))
	return nil
}

package mavlink

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
)

// ErrShortPayload 载荷长度不足以承载该消息
var ErrShortPayload = errors.New("mavlink: short payload")

// 机型/自驾仪/系统状态常量（心跳自报身份用）
const (
	TypeGCS          uint8 = 6
	AutopilotInvalid uint8 = 8
	StateActive      uint8 = 4
	ProtocolVersion  uint8 = 3

	// base_mode 位：安全开关已解除（已解锁）
	ModeFlagSafetyArmed       uint8 = 0x80
	ModeFlagCustomModeEnabled uint8 = 0x01
)

// 命令ID（COMMAND_LONG.command）
const (
	CmdNavLand            uint16 = 21
	CmdNavTakeoff         uint16 = 22
	CmdComponentArmDisarm uint16 = 400
)

// Heartbeat HEARTBEAT(0)：存活与基本状态
type Heartbeat struct {
	CustomMode     uint32
	Type           uint8
	Autopilot      uint8
	BaseMode       uint8
	SystemStatus   uint8
	MavlinkVersion uint8
}

const heartbeatLen = 9

// Pack 按小端序列化
func (h Heartbeat) Pack() []byte {
	p := make([]byte, heartbeatLen)
	binary.LittleEndian.PutUint32(p[0:4], h.CustomMode)
	p[4] = h.Type
	p[5] = h.Autopilot
	p[6] = h.BaseMode
	p[7] = h.SystemStatus
	p[8] = h.MavlinkVersion
	return p
}

// Armed base_mode 解锁位是否置位
func (h Heartbeat) Armed() bool { return h.BaseMode&ModeFlagSafetyArmed != 0 }

// DecodeHeartbeat 解析 HEARTBEAT 载荷
func DecodeHeartbeat(p []byte) (Heartbeat, error) {
	if len(p) < heartbeatLen {
		return Heartbeat{}, ErrShortPayload
	}
	return Heartbeat{
		CustomMode:     binary.LittleEndian.Uint32(p[0:4]),
		Type:           p[4],
		Autopilot:      p[5],
		BaseMode:       p[6],
		SystemStatus:   p[7],
		MavlinkVersion: p[8],
	}, nil
}

// CommandLong COMMAND_LONG(76)：带7个参数的命令
type CommandLong struct {
	Params          [7]float32
	Command         uint16
	TargetSystem    uint8
	TargetComponent uint8
	Confirmation    uint8
}

const commandLongLen = 33

// Pack 按小端序列化
func (c CommandLong) Pack() []byte {
	p := make([]byte, commandLongLen)
	for i, f := range c.Params {
		binary.LittleEndian.PutUint32(p[i*4:i*4+4], math.Float32bits(f))
	}
	binary.LittleEndian.PutUint16(p[28:30], c.Command)
	p[30] = c.TargetSystem
	p[31] = c.TargetComponent
	p[32] = c.Confirmation
	return p
}

// DecodeCommandLong 解析 COMMAND_LONG 载荷
func DecodeCommandLong(p []byte) (CommandLong, error) {
	if len(p) < commandLongLen {
		return CommandLong{}, ErrShortPayload
	}
	var c CommandLong
	for i := range c.Params {
		c.Params[i] = math.Float32frombits(binary.LittleEndian.Uint32(p[i*4 : i*4+4]))
	}
	c.Command = binary.LittleEndian.Uint16(p[28:30])
	c.TargetSystem = p[30]
	c.TargetComponent = p[31]
	c.Confirmation = p[32]
	return c, nil
}

// CommandAck COMMAND_ACK(77)：命令回执
type CommandAck struct {
	Command uint16
	Result  uint8
}

const commandAckLen = 3

// Pack 按小端序列化
func (a CommandAck) Pack() []byte {
	p := make([]byte, commandAckLen)
	binary.LittleEndian.PutUint16(p[0:2], a.Command)
	p[2] = a.Result
	return p
}

// DecodeCommandAck 解析 COMMAND_ACK 载荷
func DecodeCommandAck(p []byte) (CommandAck, error) {
	if len(p) < commandAckLen {
		return CommandAck{}, ErrShortPayload
	}
	return CommandAck{
		Command: binary.LittleEndian.Uint16(p[0:2]),
		Result:  p[2],
	}, nil
}

// SetMode SET_MODE(11)：切换飞行模式
type SetMode struct {
	CustomMode   uint32
	TargetSystem uint8
	BaseMode     uint8
}

const setModeLen = 6

// Pack 按小端序列化
func (s SetMode) Pack() []byte {
	p := make([]byte, setModeLen)
	binary.LittleEndian.PutUint32(p[0:4], s.CustomMode)
	p[4] = s.TargetSystem
	p[5] = s.BaseMode
	return p
}

// DecodeSetMode 解析 SET_MODE 载荷
func DecodeSetMode(p []byte) (SetMode, error) {
	if len(p) < setModeLen {
		return SetMode{}, ErrShortPayload
	}
	return SetMode{
		CustomMode:   binary.LittleEndian.Uint32(p[0:4]),
		TargetSystem: p[4],
		BaseMode:     p[5],
	}, nil
}

// GlobalPositionInt GLOBAL_POSITION_INT(33)：位置遥测（毫米/厘米整数表示）
type GlobalPositionInt struct {
	TimeBootMs  uint32
	Lat         int32 // 1e7 度
	Lon         int32 // 1e7 度
	Alt         int32 // 毫米（海拔）
	RelativeAlt int32 // 毫米（相对起飞点）
	Vx          int16
	Vy          int16
	Vz          int16
	Hdg         uint16
}

const globalPositionIntLen = 28

// Pack 按小端序列化
func (g GlobalPositionInt) Pack() []byte {
	p := make([]byte, globalPositionIntLen)
	binary.LittleEndian.PutUint32(p[0:4], g.TimeBootMs)
	binary.LittleEndian.PutUint32(p[4:8], uint32(g.Lat))
	binary.LittleEndian.PutUint32(p[8:12], uint32(g.Lon))
	binary.LittleEndian.PutUint32(p[12:16], uint32(g.Alt))
	binary.LittleEndian.PutUint32(p[16:20], uint32(g.RelativeAlt))
	binary.LittleEndian.PutUint16(p[20:22], uint16(g.Vx))
	binary.LittleEndian.PutUint16(p[22:24], uint16(g.Vy))
	binary.LittleEndian.PutUint16(p[24:26], uint16(g.Vz))
	binary.LittleEndian.PutUint16(p[26:28], g.Hdg)
	return p
}

// RelativeAltMeters 相对高度（协议毫米换算为米）
func (g GlobalPositionInt) RelativeAltMeters() float64 {
	return float64(g.RelativeAlt) / 1000.0
}

// DecodeGlobalPositionInt 解析 GLOBAL_POSITION_INT 载荷
func DecodeGlobalPositionInt(p []byte) (GlobalPositionInt, error) {
	if len(p) < globalPositionIntLen {
		return GlobalPositionInt{}, ErrShortPayload
	}
	return GlobalPositionInt{
		TimeBootMs:  binary.LittleEndian.Uint32(p[0:4]),
		Lat:         int32(binary.LittleEndian.Uint32(p[4:8])),
		Lon:         int32(binary.LittleEndian.Uint32(p[8:12])),
		Alt:         int32(binary.LittleEndian.Uint32(p[12:16])),
		RelativeAlt: int32(binary.LittleEndian.Uint32(p[16:20])),
		Vx:          int16(binary.LittleEndian.Uint16(p[20:22])),
		Vy:          int16(binary.LittleEndian.Uint16(p[22:24])),
		Vz:          int16(binary.LittleEndian.Uint16(p[24:26])),
		Hdg:         binary.LittleEndian.Uint16(p[26:28]),
	}, nil
}

// StatusText STATUSTEXT(253)：飞控文本告警
type StatusText struct {
	Severity uint8
	Text     string
}

const statusTextLen = 51

// DecodeStatusText 解析 STATUSTEXT 载荷（文本去除 NUL 填充）
func DecodeStatusText(p []byte) (StatusText, error) {
	if len(p) < statusTextLen {
		return StatusText{}, ErrShortPayload
	}
	txt := p[1:statusTextLen]
	if i := bytes.IndexByte(txt, 0); i >= 0 {
		txt = txt[:i]
	}
	return StatusText{Severity: p[0], Text: string(txt)}, nil
}

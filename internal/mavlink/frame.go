package mavlink

// 帧布局（同步字节决定头长度与可选签名）：
// v1: FE | len | seq | sysId | compId | msgId | payload[len] | crcLE[2]
// v2: FD | len | incompat | compat | seq | sysId | compId | msgIdLE[3] | payload[len] | crcLE[2] | (签名[13])
const (
	magicV1 = 0xFE
	magicV2 = 0xFD

	headerLenV1 = 6  // 含同步字节
	headerLenV2 = 10 // 含同步字节

	checksumLen  = 2
	signatureLen = 13

	// incompat 标志：帧尾带签名
	flagSigned = 0x01
)

// Version 帧版本
type Version uint8

const (
	V1 Version = 1
	V2 Version = 2
)

// 已实现的消息ID子集
const (
	MsgIDHeartbeat         uint32 = 0
	MsgIDSetMode           uint32 = 11
	MsgIDGlobalPositionInt uint32 = 33
	MsgIDCommandLong       uint32 = 76
	MsgIDCommandAck        uint32 = 77
	MsgIDStatusText        uint32 = 253
)

// Message 一帧通过校验的消息（解码后不可变）
type Message struct {
	Version     Version
	Seq         uint8
	SystemID    uint8
	ComponentID uint8
	MsgID       uint32
	Payload     []byte
	Checksum    uint16
}

package mavlink

const crcInit uint16 = 0xFFFF

// crcAccumulate CRC-16/X.25 累加（帧校验；不含同步字节）
func crcAccumulate(crc uint16, data []byte) uint16 {
	for _, b := range data {
		tmp := b ^ byte(crc&0xFF)
		tmp ^= tmp << 4
		crc = (crc >> 8) ^ (uint16(tmp) << 8) ^ (uint16(tmp) << 3) ^ (uint16(tmp) >> 4)
	}
	return crc
}

// crcExtra 各消息ID的附加校验种子。
// 未知ID无法完成校验，解码时按帧错误处理（与参考解析器一致）。
var crcExtra = map[uint32]byte{
	MsgIDHeartbeat:         50,
	1:                      124, // SYS_STATUS
	MsgIDSetMode:           89,
	24:                     24, // GPS_RAW_INT
	30:                     39, // ATTITUDE
	MsgIDGlobalPositionInt: 104,
	74:                     20, // VFR_HUD
	MsgIDCommandLong:       152,
	MsgIDCommandAck:        143,
	MsgIDStatusText:        83,
}

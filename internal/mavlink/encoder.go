package mavlink

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrUnknownMsgID 该消息ID没有 crcExtra 种子，无法构帧
	ErrUnknownMsgID = errors.New("mavlink: unknown message id")
	// ErrPayloadTooLong 载荷超过单帧上限
	ErrPayloadTooLong = errors.New("mavlink: payload too long")
)

// BuildV1 构造一帧 v1 下行帧（与解码器对应）。
// seq 由调用方维护；msgID 必须属于已知子集且不超过一字节。
func BuildV1(seq, sysID, compID uint8, msgID uint32, payload []byte) ([]byte, error) {
	extra, ok := crcExtra[msgID]
	if !ok || msgID > 0xFF {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMsgID, msgID)
	}
	if len(payload) > 0xFF {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLong, len(payload))
	}

	total := headerLenV1 + len(payload) + checksumLen
	buf := make([]byte, 0, total)
	buf = append(buf, magicV1, byte(len(payload)), seq, sysID, compID, byte(msgID))
	buf = append(buf, payload...)

	crc := crcAccumulate(crcInit, buf[1:])
	crc = crcAccumulate(crc, []byte{extra})
	sum := make([]byte, checksumLen)
	binary.LittleEndian.PutUint16(sum, crc)
	return append(buf, sum...), nil
}

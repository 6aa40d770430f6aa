package mavlink

import "encoding/binary"

// DecoderStats 解码器诊断计数（实例私有，非进程全局）
type DecoderStats struct {
	Frames       uint64 // 成功解出的帧数
	CRCErrors    uint64 // 校验失败（含未知消息ID）
	BytesSkipped uint64 // 同步扫描中丢弃的字节数
}

// Decoder 处理半包/粘包的流式解码器。
// 校验失败时从当次同步字节的下一字节继续扫描，保证不会卡在同一偏移；
// 末尾不完整的帧保留在缓冲区，等待下一次 Feed。
type Decoder struct {
	buf         []byte
	maxFrameLen int
	stats       DecoderStats
}

// NewDecoder 创建流式解码器
func NewDecoder() *Decoder {
	// v2 上限：头10 + 载荷255 + 校验2 + 签名13
	return &Decoder{maxFrameLen: headerLenV2 + 255 + checksumLen + signatureLen}
}

// Stats 返回累计诊断计数
func (d *Decoder) Stats() DecoderStats { return d.stats }

// Feed 追加数据并尽可能解出多帧；返回本次新解出的消息
func (d *Decoder) Feed(p []byte) []Message {
	if len(p) > 0 {
		d.buf = append(d.buf, p...)
	}
	var out []Message

	for {
		// 查找同步字节
		start := indexMagic(d.buf)
		if start < 0 {
			// 无同步字节，全部丢弃（同步字节只占1字节，无跨界问题）
			d.stats.BytesSkipped += uint64(len(d.buf))
			d.buf = d.buf[:0]
			return out
		}
		if start > 0 {
			d.stats.BytesSkipped += uint64(start)
			d.buf = d.buf[start:]
		}
		if len(d.buf) < 2 {
			// 还需要长度字节
			return out
		}

		magic := d.buf[0]
		payloadLen := int(d.buf[1])
		var total int
		if magic == magicV1 {
			total = headerLenV1 + payloadLen + checksumLen
		} else {
			if len(d.buf) < 3 {
				return out
			}
			total = headerLenV2 + payloadLen + checksumLen
			if d.buf[2]&flagSigned != 0 {
				total += signatureLen
			}
		}
		if total > d.maxFrameLen {
			d.slideOne()
			continue
		}
		if len(d.buf) < total {
			// 半包，等待更多
			return out
		}

		msg, ok := d.tryParse(d.buf[:total], magic)
		if !ok {
			d.stats.CRCErrors++
			d.slideOne()
			continue
		}
		d.stats.Frames++
		out = append(out, msg)
		d.buf = d.buf[total:]
		if len(d.buf) == 0 {
			return out
		}
	}
}

// slideOne 丢弃当前同步字节，从下一字节继续寻找同步
func (d *Decoder) slideOne() {
	d.stats.BytesSkipped++
	d.buf = d.buf[1:]
}

// tryParse 严格解析一帧候选数据（长度已知且完整）
func (d *Decoder) tryParse(raw []byte, magic byte) (Message, bool) {
	var m Message
	var crcEnd int

	if magic == magicV1 {
		m = Message{
			Version:     V1,
			Seq:         raw[2],
			SystemID:    raw[3],
			ComponentID: raw[4],
			MsgID:       uint32(raw[5]),
		}
		crcEnd = headerLenV1 + int(raw[1])
	} else {
		m = Message{
			Version:     V2,
			Seq:         raw[4],
			SystemID:    raw[5],
			ComponentID: raw[6],
			MsgID:       uint32(raw[7]) | uint32(raw[8])<<8 | uint32(raw[9])<<16,
		}
		crcEnd = headerLenV2 + int(raw[1])
	}

	extra, known := crcExtra[m.MsgID]
	if !known {
		return Message{}, false
	}
	got := binary.LittleEndian.Uint16(raw[crcEnd : crcEnd+checksumLen])
	want := crcAccumulate(crcInit, raw[1:crcEnd])
	want = crcAccumulate(want, []byte{extra})
	if got != want {
		return Message{}, false
	}

	// 复制载荷：缓冲区随后会被复用
	var hdr int
	if magic == magicV1 {
		hdr = headerLenV1
	} else {
		hdr = headerLenV2
	}
	m.Payload = append([]byte(nil), raw[hdr:crcEnd]...)
	m.Checksum = got
	// v2 签名仅消费，不做校验
	return m, true
}

// indexMagic 返回缓冲区中下一个同步字节的位置
func indexMagic(b []byte) int {
	for i, c := range b {
		if c == magicV1 || c == magicV2 {
			return i
		}
	}
	return -1
}

// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/rtprecv
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package rtprtcp

import (
	"github.com/q191201771/naza/pkg/bele"
	"github.com/q191201771/rtprecv/pkg/base"
)

// -----------------------------------
// rfc3550 5.1 RTP Fixed Header Fields
// -----------------------------------
//
// 0                   1                   2                   3
// 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// |V=2|P|X|  CC   |M|     PT      |       sequence number         |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// |                           timestamp                           |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// |           synchronization source (SSRC) identifier            |
// +=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+
// |            contributing source (CSRC) identifiers             |
// |                             ....                              |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//
// 扩展部分，rfc3550 5.3.1 RTP Header Extension
//
// 0                   1                   2                   3
// 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// |      defined by profile       |           length              |
// +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// |                        header extension                       |
// |                             ....                              |

const (
	RtpFixedHeaderLength = 12

	DefaultRtpVersion = 2
)

const (
	PositionTypeSingle    uint8 = 1
	PositionTypeFuaStart  uint8 = 2
	PositionTypeFuaMiddle uint8 = 3
	PositionTypeFuaEnd    uint8 = 4
	PositionTypeStapa     uint8 = 5
	PositionTypeIgnore    uint8 = 6 // STAP-B等不支持的打包模式，以及解析失败的包
)

type RtpHeader struct {
	Version    uint8  // 2b  *
	Padding    uint8  // 1b
	Extension  uint8  // 1b
	CsrcCount  uint8  // 4b
	Mark       uint8  // 1b  *
	PacketType uint8  // 7b
	Seq        uint16 // 16b **
	Timestamp  uint32 // 32b **** samples
	Ssrc       uint32 // 32b **** Synchronization source

	Csrcs            []uint32
	ExtensionProfile uint16

	payloadOffset uint32
	paddingLength uint32
}

type RtpPacket struct {
	Header RtpHeader
	Raw    []byte // 包含header内存

	positionType uint8
}

// Body 取payload部分，直接引用Raw的内存，去除了头部以及尾部的padding
func (p *RtpPacket) Body() []byte {
	return p.Raw[p.Header.payloadOffset : uint32(len(p.Raw))-p.Header.paddingLength]
}

func (h *RtpHeader) PayloadOffset() uint32 {
	return h.payloadOffset
}

func (h *RtpHeader) PackTo(out []byte) {
	out[0] = h.CsrcCount | (h.Extension << 4) | (h.Padding << 5) | (h.Version << 6)
	out[1] = h.PacketType | (h.Mark << 7)
	bele.BePutUint16(out[2:], h.Seq)
	bele.BePutUint32(out[4:], h.Timestamp)
	bele.BePutUint32(out[8:], h.Ssrc)
}

func MakeDefaultRtpHeader() RtpHeader {
	return RtpHeader{
		Version:       DefaultRtpVersion,
		Padding:       0,
		Extension:     0,
		CsrcCount:     0,
		payloadOffset: RtpFixedHeaderLength,
	}
}

func MakeRtpPacket(h RtpHeader, payload []byte) (pkt RtpPacket) {
	pkt.Header = h
	pkt.Header.payloadOffset = RtpFixedHeaderLength
	pkt.Raw = make([]byte, RtpFixedHeaderLength+len(payload))
	pkt.Header.PackTo(pkt.Raw)
	copy(pkt.Raw[RtpFixedHeaderLength:], payload)
	return
}

// ParseRtpHeader 解析rtp固定头部，以及csrc列表、扩展部分和padding长度
//
// payload的偏移和长度解析完毕后可通过 RtpPacket.Body 获取，不发生拷贝
func ParseRtpHeader(b []byte) (h RtpHeader, err error) {
	if len(b) < RtpFixedHeaderLength {
		err = base.ErrMalformedRtpHeader
		return
	}

	h.Version = b[0] >> 6
	if h.Version != DefaultRtpVersion {
		err = base.ErrMalformedRtpHeader
		return
	}
	h.Padding = (b[0] >> 5) & 0x1
	h.Extension = (b[0] >> 4) & 0x1
	h.CsrcCount = b[0] & 0xF
	h.Mark = b[1] >> 7
	h.PacketType = b[1] & 0x7F
	h.Seq = bele.BeUint16(b[2:])
	h.Timestamp = bele.BeUint32(b[4:])
	h.Ssrc = bele.BeUint32(b[8:])

	offset := uint32(RtpFixedHeaderLength)

	if h.CsrcCount > 0 {
		if uint32(len(b)) < offset+uint32(h.CsrcCount)*4 {
			err = base.ErrMalformedRtpHeader
			return
		}
		h.Csrcs = make([]uint32, h.CsrcCount)
		for i := uint8(0); i < h.CsrcCount; i++ {
			h.Csrcs[i] = bele.BeUint32(b[offset:])
			offset += 4
		}
	}

	if h.Extension == 1 {
		if uint32(len(b)) < offset+4 {
			err = base.ErrMalformedRtpHeader
			return
		}
		h.ExtensionProfile = bele.BeUint16(b[offset:])
		extLenInWords := uint32(bele.BeUint16(b[offset+2:]))
		offset += 4
		if uint32(len(b)) < offset+extLenInWords*4 {
			err = base.ErrMalformedRtpHeader
			return
		}
		offset += extLenInWords * 4
	}

	if h.Padding == 1 {
		// padding长度取payload的最后一个字节
		if uint32(len(b)) <= offset {
			err = base.ErrMalformedRtpHeader
			return
		}
		h.paddingLength = uint32(b[len(b)-1])
		if uint32(len(b)) < offset+h.paddingLength {
			err = base.ErrMalformedRtpHeader
			return
		}
	}

	h.payloadOffset = offset
	return
}

// ParseRtpPacket 函数调用结束后，不持有参数<b>的内存块
func ParseRtpPacket(b []byte) (pkt RtpPacket, err error) {
	pkt.Header, err = ParseRtpHeader(b)
	if err != nil {
		return
	}
	pkt.Raw = make([]byte, len(b))
	copy(pkt.Raw, b)
	return
}

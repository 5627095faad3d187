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

// -------------------------------------------
// rfc3550 6.4.1 SR: Sender Report RTCP Packet
// -------------------------------------------
//
//        0                   1                   2                   3
//        0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
//        +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
// header |V=2|P|    RC   |   PT=SR=200   |             length            |
//        +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//        |                         SSRC of sender                        |
//        +=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+
// sender |              NTP timestamp, most significant word             |
// info   +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//        |             NTP timestamp, least significant word             |
//        +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//        |                         RTP timestamp                         |
//        +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//        |                     sender's packet count                     |
//        +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//        |                      sender's octet count                     |
//        +=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+
// report |                 SSRC_1 (SSRC of first source)                 |
// block  +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//   1    | fraction lost |       cumulative number of packets lost       |
//        +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//        |           extended highest sequence number received           |
//        +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//        |                      interarrival jitter                      |
//        +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//        |                         last SR (LSR)                         |
//        +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//        |                   delay since last SR (DLSR)                  |
//        +=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+
//
// ------------------------------
// rfc3550 6.6 BYE: Goodbye RTCP Packet
// ------------------------------
//
//        0                   1                   2                   3
//        0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
//        +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//        |V=2|P|    SC   |   PT=BYE=203  |             length            |
//        +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//        |                           SSRC/CSRC                           |
//        +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//        :                              ...                              :
//        +=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+
// (opt)  |     length    |               reason for leaving            ...
//        +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+

const (
	RtcpPacketTypeSr    = 200 // 0xc8 Sender Report
	RtcpPacketTypeRr    = 201 // 0xc9 Receiver Report
	RtcpPacketTypeSdes  = 202 // 0xca Source Description
	RtcpPacketTypeBye   = 203 // 0xcb Goodbye
	RtcpPacketTypeApp   = 204 // 0xcc Application-Defined
	RtcpPacketTypeRtpfb = 205 // 0xcd Transport layer FB message
	RtcpPacketTypePsfb  = 206 // 0xce Payload-specific FB message

	RtcpHeaderLength = 4

	RtcpVersion = 2
)

type RtcpHeader struct {
	Version       uint8  // 2b
	Padding       uint8  // 1b
	CountOrFormat uint8  // 5b 包类型为205/206时为fmt字段
	PacketType    uint8  // 8b
	Length        uint16 // 16b, whole packet byte length = (Length+1) * 4
}

type Sr struct {
	SenderSsrc uint32
	Msw        uint32 // NTP timestamp, most significant word
	Lsw        uint32 // NTP timestamp, least significant word
	Timestamp  uint32
	PktCnt     uint32
	OctetCnt   uint32
}

// ReceptionReport rfc3550 6.4.1中的report block，SR和RR共用
type ReceptionReport struct {
	Ssrc        uint32
	Fraction    uint8
	Lost        uint32 // 24b
	ExtendedSeq uint32
	Jitter      uint32
	Lsr         uint32 // 偏移16
	Dlsr        uint32 // 偏移20
}

type Bye struct {
	Ssrcs  []uint32
	Reason string
}

func ParseRtcpHeader(b []byte) (h RtcpHeader, err error) {
	if len(b) < RtcpHeaderLength {
		err = base.ErrMalformedRtcpPacket
		return
	}
	h.Version = b[0] >> 6
	if h.Version != RtcpVersion {
		err = base.ErrMalformedRtcpPacket
		return
	}
	h.Padding = (b[0] >> 5) & 0x1
	h.CountOrFormat = b[0] & 0x1F
	h.PacketType = b[1]
	h.Length = bele.BeUint16(b[2:])
	return
}

// ParseSr rfc3550 6.4.1
//
// @param b rtcp包，包含包头
func ParseSr(b []byte) (s Sr, err error) {
	if len(b) < 28 {
		err = base.ErrMalformedRtcpPacket
		return
	}
	s.SenderSsrc = bele.BeUint32(b[4:])
	s.Msw = bele.BeUint32(b[8:])
	s.Lsw = bele.BeUint32(b[12:])
	s.Timestamp = bele.BeUint32(b[16:])
	s.PktCnt = bele.BeUint32(b[20:])
	s.OctetCnt = bele.BeUint32(b[24:])
	return
}

// ParseReceptionReport 解析一个24字节的report block
//
// @param b report block的起始位置
//
// 注意，LSR和DLSR两个字段分别在块内偏移16和20处，各自读取
func ParseReceptionReport(b []byte) (rr ReceptionReport, err error) {
	if len(b) < 24 {
		err = base.ErrMalformedRtcpPacket
		return
	}
	rr.Ssrc = bele.BeUint32(b)
	rr.Fraction = b[4]
	rr.Lost = uint32(b[5])<<16 | uint32(b[6])<<8 | uint32(b[7])
	rr.ExtendedSeq = bele.BeUint32(b[8:])
	rr.Jitter = bele.BeUint32(b[12:])
	rr.Lsr = bele.BeUint32(b[16:])
	rr.Dlsr = bele.BeUint32(b[20:])
	return
}

// ParseBye rfc3550 6.6
//
// @param b rtcp包，包含包头
func ParseBye(b []byte) (bye Bye, err error) {
	h, err := ParseRtcpHeader(b)
	if err != nil {
		return
	}
	if h.PacketType != RtcpPacketTypeBye {
		err = base.ErrMalformedRtcpPacket
		return
	}

	sc := int(h.CountOrFormat)
	if len(b) < RtcpHeaderLength+sc*4 {
		err = base.ErrMalformedRtcpPacket
		return
	}
	index := RtcpHeaderLength
	for i := 0; i < sc; i++ {
		bye.Ssrcs = append(bye.Ssrcs, bele.BeUint32(b[index:]))
		index += 4
	}

	// 可选的reason部分
	if len(b) > index {
		reasonLen := int(b[index])
		index++
		if len(b) >= index+reasonLen {
			bye.Reason = string(b[index : index+reasonLen])
		}
	}
	return
}

// IterateRtcpPackets 遍历复合rtcp包中的每个子包
//
// @param onPacket 每个子包回调一次，b包含子包的头部。返回false时终止遍历
func IterateRtcpPackets(b []byte, onPacket func(h RtcpHeader, b []byte) bool) error {
	for len(b) > 0 {
		h, err := ParseRtcpHeader(b)
		if err != nil {
			return err
		}
		wholeLen := (int(h.Length) + 1) * 4
		if len(b) < wholeLen {
			return base.ErrMalformedRtcpPacket
		}
		if !onPacket(h, b[:wholeLen]) {
			return nil
		}
		b = b[wholeLen:]
	}
	return nil
}

// PackTo @param out 传出参数，注意，调用方保证长度>=4
func (h *RtcpHeader) PackTo(out []byte) {
	out[0] = h.Version<<6 | h.Padding<<5 | h.CountOrFormat
	out[1] = h.PacketType
	bele.BePutUint16(out[2:], h.Length)
}

func (s *Sr) GetMiddleNtp() uint32 {
	return uint32(((uint64(s.Msw)<<32 | uint64(s.Lsw)) << 16) >> 32)
}

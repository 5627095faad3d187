// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/rtprecv
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package rtprtcp

// rtp和rtcp复用同一个udp端口时的区分，见rfc5761 4.
//
// 首字节高两位为版本号2，即取值范围[128, 191]，
// 次字节落在rtcp包类型区间时按rtcp处理，其余按rtp处理

type PacketKind int

const (
	PacketKindInvalid PacketKind = iota
	PacketKindRtp
	PacketKindRtcp
)

func (k PacketKind) ReadableString() string {
	switch k {
	case PacketKindRtp:
		return "rtp"
	case PacketKindRtcp:
		return "rtcp"
	}
	return "invalid"
}

// ClassifyPacket 判断一个udp datagram是rtp、rtcp还是不合法数据
func ClassifyPacket(b []byte) PacketKind {
	if len(b) < RtpFixedHeaderLength {
		return PacketKindInvalid
	}
	if b[0] < 128 || b[0] > 191 {
		return PacketKindInvalid
	}
	switch b[1] {
	case RtcpPacketTypeSr, RtcpPacketTypeRr, RtcpPacketTypeSdes, RtcpPacketTypeBye, RtcpPacketTypeRtpfb, RtcpPacketTypePsfb:
		return PacketKindRtcp
	}
	return PacketKindRtp
}

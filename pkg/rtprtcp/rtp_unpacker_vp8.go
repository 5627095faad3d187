// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/rtprecv
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package rtprtcp

import (
	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/q191201771/rtprecv/pkg/vp8"
)

// RtpUnpackerVp8 去除每个包的payload descriptor，按包序拼接成一帧
type RtpUnpackerVp8 struct {
	droppedPacketCount uint32 // 缺少帧起始标志或descriptor非法的包
}

func NewRtpUnpackerVp8() *RtpUnpackerVp8 {
	return &RtpUnpackerVp8{}
}

func (unpacker *RtpUnpackerVp8) CalcPositionIfNeeded(pkt *RtpPacket) {
	// vp8不存在聚合和分片的打包模式，位置概念只有帧起始，在合帧时通过descriptor判断
	pkt.positionType = PositionTypeSingle
}

func (unpacker *RtpUnpackerVp8) UnpackFrame(list *RtpPacketList) (payload []byte, isKeyFrame bool) {
	var out []byte

	for item := list.Head.Next; item != nil; item = item.Next {
		pkt := &item.Packet
		b := pkt.Body()

		d, err := vp8.ParsePayloadDescriptor(b)
		if err != nil {
			unpacker.droppedPacketCount++
			nazalog.Warnf("parse vp8 payload descriptor failed, packet dropped. err=%+v, seq=%d", err, pkt.Header.Seq)
			continue
		}

		// 空缓冲只接受帧起始包，即S=1且PartID=0
		if len(out) == 0 && (!d.S || d.PartId != 0) {
			unpacker.droppedPacketCount++
			nazalog.Warnf("vp8 packet is not start of frame, dropped. seq=%d, s=%v, partId=%d", pkt.Header.Seq, d.S, d.PartId)
			continue
		}

		out = append(out, b[d.Length:]...)
	}

	if len(out) == 0 {
		return nil, false
	}

	// vp8 payload header首字节的P位，0表示key frame，见rfc7741 4.3
	isKeyFrame = out[0]&0x01 == 0
	return out, isKeyFrame
}

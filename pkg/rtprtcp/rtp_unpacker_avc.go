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
	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/q191201771/rtprecv/pkg/avc"
)

// RtpUnpackerAvc 将一帧内的rtp包合成为AnnexB格式的nal序列
//
// 支持的打包模式：单nal包(1-23)，STAP-A(24)，FU-A(28)
// STAP-B(25)，MTAP16(26)，MTAP24(27)，FU-B(29)计数后丢弃
type RtpUnpackerAvc struct {
	droppedAggrCount uint32 // STAP-B、MTAP16、MTAP24
	droppedFubCount  uint32
	droppedFragCount uint32 // 分片中途缺包或缺起始包导致丢弃的nal个数
}

func NewRtpUnpackerAvc() *RtpUnpackerAvc {
	return &RtpUnpackerAvc{}
}

func (unpacker *RtpUnpackerAvc) CalcPositionIfNeeded(pkt *RtpPacket) {
	b := pkt.Body()
	if len(b) < 1 {
		pkt.positionType = PositionTypeIgnore
		return
	}

	outerNaluType := avc.ParseNaluType(b[0])

	if outerNaluType <= NaluTypeAvcSingleMax {
		pkt.positionType = PositionTypeSingle
		return
	}

	switch outerNaluType {
	case NaluTypeAvcStapa:
		pkt.positionType = PositionTypeStapa
	case NaluTypeAvcFua:
		// rfc3984 5.8.  Fragmentation Units (FUs)
		//
		// FU indicator:        Fu header:
		// +---------------+    +---------------+
		// |0|1|2|3|4|5|6|7|    |0|1|2|3|4|5|6|7|
		// +-+-+-+-+-+-+-+-+    +-+-+-+-+-+-+-+-+
		// |F|NRI|  Type   |    |S|E|R|  Type   |
		// +---------------+    +---------------+

		if len(b) < 2 {
			pkt.positionType = PositionTypeIgnore
			return
		}
		fuHeader := b[1]

		startCode := (fuHeader & 0x80) != 0
		endCode := (fuHeader & 0x40) != 0

		if startCode {
			pkt.positionType = PositionTypeFuaStart
			return
		}

		if endCode {
			pkt.positionType = PositionTypeFuaEnd
			return
		}

		pkt.positionType = PositionTypeFuaMiddle
	case NaluTypeAvcStapb, NaluTypeAvcMtap16, NaluTypeAvcMtap24:
		unpacker.droppedAggrCount++
		pkt.positionType = PositionTypeIgnore
	case NaluTypeAvcFub:
		unpacker.droppedFubCount++
		pkt.positionType = PositionTypeIgnore
	default:
		nazalog.Errorf("unknown nalu type. outerNaluType=%d", outerNaluType)
		pkt.positionType = PositionTypeIgnore
	}
}

func (unpacker *RtpUnpackerAvc) UnpackFrame(list *RtpPacketList) (payload []byte, isKeyFrame bool) {
	var out []byte

	// FU-A分片的中间状态
	var fragBuf []byte
	var fragValid bool
	var fragPrevSeq uint16

	dropFrag := func() {
		if fragValid {
			unpacker.droppedFragCount++
		}
		fragBuf = nil
		fragValid = false
	}

	appendNalu := func(nalu []byte) {
		if len(nalu) == 0 {
			return
		}
		switch avc.ParseNaluType(nalu[0]) {
		case avc.NaluTypeSps, avc.NaluTypePps:
			isKeyFrame = true
		}
		out = append(out, avc.NaluStartCode...)
		out = append(out, nalu...)
	}

	for item := list.Head.Next; item != nil; item = item.Next {
		pkt := &item.Packet
		b := pkt.Body()

		switch pkt.positionType {
		case PositionTypeSingle:
			dropFrag()
			appendNalu(b)

		case PositionTypeStapa:
			dropFrag()
			// 跳过首字节，后面是多个(2字节长度+nalu)
			// 长度字段不完整或越界时终止本包的解析，不算错误
			buf := b[1:]
			for i := 0; i+2 <= len(buf); {
				naluSize := int(bele.BeUint16(buf[i:]))
				i += 2
				if i+naluSize > len(buf) {
					break
				}
				appendNalu(buf[i : i+naluSize])
				i += naluSize
			}

		case PositionTypeFuaStart:
			dropFrag()
			fuIndicator := b[0]
			fuHeader := b[1]
			// 重建nal unit header：F和NRI取自FU indicator，type取自FU header
			naluHeader := (fuIndicator & 0xE0) | (fuHeader & 0x1F)
			fragBuf = append(fragBuf, naluHeader)
			fragBuf = append(fragBuf, b[2:]...)
			fragValid = true
			fragPrevSeq = pkt.Header.Seq

		case PositionTypeFuaMiddle:
			fallthrough
		case PositionTypeFuaEnd:
			if !fragValid {
				// 缺少起始分片，丢弃该包
				unpacker.droppedFragCount++
				nazalog.Warnf("fu-a fragment without start, dropped. seq=%d", pkt.Header.Seq)
				continue
			}
			if SubSeq(pkt.Header.Seq, fragPrevSeq) != 1 {
				// 分片中间缺包，整个nal丢弃
				nazalog.Warnf("fu-a fragment gap, nal dropped. prevSeq=%d, seq=%d", fragPrevSeq, pkt.Header.Seq)
				dropFrag()
				continue
			}
			fragBuf = append(fragBuf, b[2:]...)
			fragPrevSeq = pkt.Header.Seq
			if pkt.positionType == PositionTypeFuaEnd {
				appendNalu(fragBuf)
				fragBuf = nil
				fragValid = false
			}

		case PositionTypeIgnore:
			// noop

		default:
			nazalog.Errorf("invalid position. pos=%d", pkt.positionType)
		}
	}

	// 帧结束时还有未完成的分片，丢弃
	dropFrag()

	return out, isKeyFrame
}

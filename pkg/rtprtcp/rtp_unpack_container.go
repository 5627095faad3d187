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
)

// RtpUnpackContainer 以时间戳为界缓存rtp包，帧的全部包到齐后交给protocol合成
//
// 帧内乱序通过按seq有序插入解决，合帧时机：
// 已经收到marker包，缓存的包按seq连续、结尾正好是marker包，且首包不是fu-a的中间或结尾分片。
// marker包先于帧内其他包到达时，若缓存中有空洞或首包是fu-a中间/结尾分片，合帧推迟到补齐；
// 首包是单nal、STAP-A或fu-a起始分片时，不判断它之前是否还有包未到
type RtpUnpackContainer struct {
	maxFrameSize    int
	protocol        IRtpUnpackerProtocol
	onFrameUnpacked OnFrameUnpacked

	list            RtpPacketList
	frameTimestamp  uint32
	frameInProgress bool
	markerReceived  bool
	markerSeq       uint16

	oversizeFrameCount  uint32
	discardedFrameCount uint32
}

func NewRtpUnpackContainer(maxFrameSize int, protocol IRtpUnpackerProtocol, onFrameUnpacked OnFrameUnpacked) *RtpUnpackContainer {
	if maxFrameSize <= 0 {
		maxFrameSize = MaxReconstructedVideoFrameSize
	}
	return &RtpUnpackContainer{
		maxFrameSize:    maxFrameSize,
		protocol:        protocol,
		onFrameUnpacked: onFrameUnpacked,
	}
}

// Feed 输入收到的rtp包
func (r *RtpUnpackContainer) Feed(pkt RtpPacket) {
	// 当前帧还没有闭合就出现了新时间戳，丢弃整个进行中的帧，从新时间戳重新开始
	if r.frameInProgress && pkt.Header.Timestamp != r.frameTimestamp {
		r.discardedFrameCount++
		r.Reset()
	}

	if !r.frameInProgress {
		r.frameTimestamp = pkt.Header.Timestamp
		r.frameInProgress = true
	}

	// 计算位置
	r.protocol.CalcPositionIfNeeded(&pkt)
	// 根据序号插入有序链表，重复的包在插入时被丢弃
	r.list.Insert(pkt)

	if pkt.Header.Mark == 1 {
		r.markerReceived = true
		r.markerSeq = pkt.Header.Seq
	}

	if !r.markerReceived || !r.frameComplete() {
		return
	}

	// 帧闭合
	payload, isKeyFrame := r.protocol.UnpackFrame(&r.list)
	timestamp := r.frameTimestamp
	r.Reset()

	if len(payload) == 0 {
		return
	}
	if len(payload) > r.maxFrameSize {
		r.oversizeFrameCount++
		nazalog.Warnf("reconstructed frame too large, dropped. size=%d, max=%d", len(payload), r.maxFrameSize)
		return
	}

	r.onFrameUnpacked(payload, timestamp, isKeyFrame)
}

// Reset 丢弃正在合成中的帧
func (r *RtpUnpackContainer) Reset() {
	r.list.Reset()
	r.frameInProgress = false
	r.markerReceived = false
}

// OversizeFrameCount 因超过大小上限被丢弃的帧数
func (r *RtpUnpackContainer) OversizeFrameCount() uint32 {
	return r.oversizeFrameCount
}

// DiscardedFrameCount 因时间戳切换被丢弃的不完整帧数
func (r *RtpUnpackContainer) DiscardedFrameCount() uint32 {
	return r.discardedFrameCount
}

// frameComplete 缓存的包seq连续且以marker包结尾，首包不是fu-a的中间或结尾分片
func (r *RtpUnpackContainer) frameComplete() bool {
	p := r.list.Head.Next
	if p == nil {
		return false
	}
	// 首包是fu-a的中间或结尾分片时，帧的起始包还没到
	if p.Packet.positionType == PositionTypeFuaMiddle || p.Packet.positionType == PositionTypeFuaEnd {
		return false
	}
	for ; p.Next != nil; p = p.Next {
		if SubSeq(p.Next.Packet.Header.Seq, p.Packet.Header.Seq) != 1 {
			return false
		}
	}
	return p.Packet.Header.Seq == r.markerSeq
}

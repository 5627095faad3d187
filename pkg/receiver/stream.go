// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/rtprecv
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package receiver

import (
	"net"

	"github.com/q191201771/rtprecv/pkg/base"
	"github.com/q191201771/rtprecv/pkg/rtprtcp"
)

// stream 一个ssrc对应一路视频流的全部状态
//
// 首个匹配编码映射的rtp包到来时惰性创建，receiver关闭或收到对应的rtcp bye时销毁。
// 只在datagram协程上访问
type stream struct {
	index      int
	ssrc       uint32
	codec      base.VideoCodec
	remoteAddr *net.UDPAddr

	// NAT穿越启发式只允许私网到公网重绑一次
	natRebindDone bool

	lastSeq      uint16
	lastSeqValid bool

	unpacker   *rtprtcp.RtpUnpackContainer
	rrProducer *rtprtcp.RrProducer
}

type onFrameOfStream func(s *stream, payload []byte, rtpTimestamp uint32, isKeyFrame bool)

func newStream(index int, ssrc uint32, codec base.VideoCodec, raddr *net.UDPAddr, option Option, onFrame onFrameOfStream) *stream {
	s := &stream{
		index:      index,
		ssrc:       ssrc,
		codec:      codec,
		remoteAddr: raddr,
		rrProducer: rtprtcp.NewRrProducer(option.VideoClockRate),
	}

	var protocol rtprtcp.IRtpUnpackerProtocol
	switch codec {
	case base.VideoCodecAvc:
		protocol = rtprtcp.NewRtpUnpackerAvc()
	case base.VideoCodecVp8:
		protocol = rtprtcp.NewRtpUnpackerVp8()
	}
	s.unpacker = rtprtcp.NewRtpUnpackContainer(option.MaxReconstructedFrameSize, protocol, func(payload []byte, rtpTimestamp uint32, isKeyFrame bool) {
		onFrame(s, payload, rtpTimestamp, isKeyFrame)
	})

	return s
}

// feedSeq 跟踪序号连续性
//
// @return jump    本次序号与上一个不连续
// @return prevSeq 跳跃前的序号，jump为false时无意义
func (s *stream) feedSeq(seq uint16) (jump bool, prevSeq uint16) {
	if !s.lastSeqValid {
		s.lastSeqValid = true
		s.lastSeq = seq
		return false, 0
	}

	prevSeq = s.lastSeq
	jump = rtprtcp.SubSeq(seq, prevSeq) != 1
	s.lastSeq = seq
	return jump, prevSeq
}

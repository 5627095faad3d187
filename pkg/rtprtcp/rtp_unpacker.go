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
	"github.com/q191201771/rtprecv/pkg/base"
)

// 传入RTP包，合成帧数据，并回调返回
// 一路视频流对应一个对象

var (
	_ IRtpUnpacker         = &RtpUnpackContainer{}
	_ IRtpUnpackerProtocol = &RtpUnpackerAvc{}
	_ IRtpUnpackerProtocol = &RtpUnpackerVp8{}
)

type IRtpUnpacker interface {
	// Feed 输入收到的rtp包
	Feed(pkt RtpPacket)

	// Reset 丢弃正在合成中的帧
	Reset()
}

type IRtpUnpackerProtocol interface {
	// CalcPositionIfNeeded 计算rtp包处于帧中的位置
	CalcPositionIfNeeded(pkt *RtpPacket)

	// UnpackFrame 将一帧（一个时间戳）对应的有序rtp包列表合成为帧数据
	//
	// 列表保证按seq从小到大排序
	//
	// @return payload    合成的帧数据，合成失败时为nil
	// @return isKeyFrame 该帧是否为关键帧
	UnpackFrame(list *RtpPacketList) (payload []byte, isKeyFrame bool)
}

// OnFrameUnpacked 成功合成一帧后的回调
//
// @param payload: 如果是AVC，AnnexB格式，即每个nal前有 00 00 00 01 起始码
//                 如果是VP8，去除了payload descriptor的裸帧数据
//                 payload是新申请的内存块，回调结束后，内部不再使用
type OnFrameUnpacked func(payload []byte, rtpTimestamp uint32, isKeyFrame bool)

// DefaultRtpUnpackerFactory 目前支持AVC和VP8，业务方也可以自己实现 IRtpUnpackerProtocol
func DefaultRtpUnpackerFactory(codec base.VideoCodec, maxFrameSize int, onFrameUnpacked OnFrameUnpacked) IRtpUnpacker {
	var protocol IRtpUnpackerProtocol
	switch codec {
	case base.VideoCodecAvc:
		protocol = NewRtpUnpackerAvc()
	case base.VideoCodecVp8:
		protocol = NewRtpUnpackerVp8()
	default:
		nazalog.Fatalf("codec not support yet. codec=%d", codec)
	}
	return NewRtpUnpackContainer(maxFrameSize, protocol, onFrameUnpacked)
}

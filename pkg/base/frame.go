// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/rtprecv
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import "net"

type VideoCodec int

const (
	VideoCodecUnknown VideoCodec = iota
	VideoCodecAvc                // H.264, rfc6184
	VideoCodecVp8                // VP8, rfc7741
)

func (c VideoCodec) ReadableString() string {
	switch c {
	case VideoCodecAvc:
		return "avc"
	case VideoCodecVp8:
		return "vp8"
	}
	return "unknown"
}

// VideoFrame 一帧合成完毕的视频数据
//
// Payload 字段含义与编码格式相关：
//   - avc 一个或多个AnnexB格式的nal，即每个nal前有 00 00 00 01 起始码
//   - vp8 去除了payload descriptor之后的裸帧数据，按包序拼接
//
// 注意，回调结束后，接收端不再使用Payload内存块，业务方如需持有应当拷贝
type VideoFrame struct {
	StreamIndex  int
	RemoteAddr   *net.UDPAddr
	RtpTimestamp uint32
	Codec        VideoCodec
	IsKeyFrame   bool
	Payload      []byte
}

// OnVideoFrame 合成一帧视频后的回调，在输入datagram的协程中同步调用
type OnVideoFrame func(frame VideoFrame)

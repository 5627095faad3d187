// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/rtprecv
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package rtprtcp_test

import (
	"testing"

	"github.com/q191201771/naza/pkg/assert"
	"github.com/q191201771/rtprecv/pkg/base"
	"github.com/q191201771/rtprecv/pkg/rtprtcp"
)

func newVp8Unpacker(frames *[]unpackedFrame) rtprtcp.IRtpUnpacker {
	return rtprtcp.DefaultRtpUnpackerFactory(base.VideoCodecVp8, 0, func(payload []byte, rtpTimestamp uint32, isKeyFrame bool) {
		*frames = append(*frames, unpackedFrame{payload, rtpTimestamp, isKeyFrame})
	})
}

// 单包一帧，去除1字节payload descriptor
func TestVp8SinglePacketFrame(t *testing.T) {
	var frames []unpackedFrame
	unpacker := newVp8Unpacker(&frames)

	frameData := []byte{0x10, 0x02, 0x00, 0x9D, 0x01, 0x2A, 0x80, 0x02, 0xE0, 0x01}
	payload := append([]byte{0x10}, frameData...) // S=1, PartID=0
	unpacker.Feed(makeAvcRtpPacket(1, 3000, 1, payload))

	assert.Equal(t, 1, len(frames))
	assert.Equal(t, frameData, frames[0].payload)
	// payload header首字节P位为0，关键帧
	assert.Equal(t, true, frames[0].isKeyFrame)
}

// 多包拼接，每个包去掉各自的descriptor
func TestVp8MultiPacketFrame(t *testing.T) {
	var frames []unpackedFrame
	unpacker := newVp8Unpacker(&frames)

	unpacker.Feed(makeAvcRtpPacket(10, 3000, 0, []byte{0x10, 0x11, 0x12}))
	unpacker.Feed(makeAvcRtpPacket(11, 3000, 0, []byte{0x00, 0x13, 0x14}))
	unpacker.Feed(makeAvcRtpPacket(12, 3000, 1, []byte{0x00, 0x15}))

	assert.Equal(t, 1, len(frames))
	assert.Equal(t, []byte{0x11, 0x12, 0x13, 0x14, 0x15}, frames[0].payload)
	// P位为1，非关键帧
	assert.Equal(t, false, frames[0].isKeyFrame)
}

// 带扩展字段的descriptor按标志位逐个跳过
func TestVp8ExtendedDescriptor(t *testing.T) {
	var frames []unpackedFrame
	unpacker := newVp8Unpacker(&frames)

	// X=1 S=1，X字节I=1且M=1，15位picture id，之后才是帧数据
	pkt := []byte{0x90, 0x80, 0x85, 0x01, 0x22, 0x33}
	unpacker.Feed(makeAvcRtpPacket(20, 6000, 1, pkt))

	assert.Equal(t, 1, len(frames))
	assert.Equal(t, []byte{0x22, 0x33}, frames[0].payload)
}

// 空缓冲只接受帧起始包
func TestVp8NonStartDropped(t *testing.T) {
	var frames []unpackedFrame
	unpacker := newVp8Unpacker(&frames)

	// S=0的包进入空缓冲被丢弃，帧里只剩起始包之后的数据
	unpacker.Feed(makeAvcRtpPacket(30, 9000, 0, []byte{0x00, 0xAA}))
	unpacker.Feed(makeAvcRtpPacket(31, 9000, 1, []byte{0x00, 0xBB}))
	assert.Equal(t, 0, len(frames))

	unpacker.Feed(makeAvcRtpPacket(32, 12000, 1, []byte{0x10, 0x30, 0xCC}))
	assert.Equal(t, 1, len(frames))
	assert.Equal(t, []byte{0x30, 0xCC}, frames[0].payload)
}

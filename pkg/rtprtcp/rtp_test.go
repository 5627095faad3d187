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
	"github.com/q191201771/naza/pkg/bele"
	"github.com/q191201771/rtprecv/pkg/rtprtcp"
)

func TestCompareSeq(t *testing.T) {
	assert.Equal(t, 0, rtprtcp.CompareSeq(0, 0))
	assert.Equal(t, 0, rtprtcp.CompareSeq(1024, 1024))
	assert.Equal(t, 0, rtprtcp.CompareSeq(65535, 65535))

	assert.Equal(t, 1, rtprtcp.CompareSeq(1, 0))
	assert.Equal(t, 1, rtprtcp.CompareSeq(16383, 0))

	assert.Equal(t, 1, rtprtcp.CompareSeq(16384, 0))
	assert.Equal(t, -1, rtprtcp.CompareSeq(65534, 0))
	assert.Equal(t, -1, rtprtcp.CompareSeq(65535, 0))
	assert.Equal(t, -1, rtprtcp.CompareSeq(65534, 1))
	assert.Equal(t, -1, rtprtcp.CompareSeq(65535, 1))

	assert.Equal(t, -1, rtprtcp.CompareSeq(0, 1))
	assert.Equal(t, -1, rtprtcp.CompareSeq(0, 16383))

	assert.Equal(t, 1, rtprtcp.CompareSeq(0, 16384))
	assert.Equal(t, 1, rtprtcp.CompareSeq(0, 65534))
	assert.Equal(t, 1, rtprtcp.CompareSeq(0, 65535))
	assert.Equal(t, 1, rtprtcp.CompareSeq(1, 65534))
	assert.Equal(t, 1, rtprtcp.CompareSeq(1, 65535))
}

// 环上任意两个不同的值，序关系恰好成立一个方向
func TestCompareSeqTotalOrder(t *testing.T) {
	seqs := []uint16{0, 1, 2, 100, 16383, 16384, 32767, 32768, 49151, 65534, 65535}
	for _, a := range seqs {
		for _, b := range seqs {
			if a == b {
				assert.Equal(t, 0, rtprtcp.CompareSeq(a, b))
				continue
			}
			assert.Equal(t, -rtprtcp.CompareSeq(b, a), rtprtcp.CompareSeq(a, b))
			assert.Equal(t, true, rtprtcp.CompareSeq(a, b) != 0)
		}
	}
}

func TestSubSeq(t *testing.T) {
	assert.Equal(t, 0, rtprtcp.SubSeq(0, 0))
	assert.Equal(t, 0, rtprtcp.SubSeq(1024, 1024))
	assert.Equal(t, 0, rtprtcp.SubSeq(65535, 65535))

	assert.Equal(t, 1, rtprtcp.SubSeq(1, 0))
	assert.Equal(t, 16383, rtprtcp.SubSeq(16383, 0))

	assert.Equal(t, -49152, rtprtcp.SubSeq(16384, 0))
	assert.Equal(t, -2, rtprtcp.SubSeq(65534, 0))
	assert.Equal(t, -1, rtprtcp.SubSeq(65535, 0))
	assert.Equal(t, -3, rtprtcp.SubSeq(65534, 1))
	assert.Equal(t, -2, rtprtcp.SubSeq(65535, 1))

	assert.Equal(t, -1, rtprtcp.SubSeq(0, 1))
	assert.Equal(t, -16383, rtprtcp.SubSeq(0, 16383))

	assert.Equal(t, 49152, rtprtcp.SubSeq(0, 16384))
	assert.Equal(t, 2, rtprtcp.SubSeq(0, 65534))
	assert.Equal(t, 1, rtprtcp.SubSeq(0, 65535))
	assert.Equal(t, 3, rtprtcp.SubSeq(1, 65534))
	assert.Equal(t, 2, rtprtcp.SubSeq(1, 65535))

	// 序号翻转
	assert.Equal(t, 1, rtprtcp.SubSeq(0, 65535))
}

func TestParseRtpHeader(t *testing.T) {
	h := rtprtcp.MakeDefaultRtpHeader()
	h.Mark = 1
	h.PacketType = 96
	h.Seq = 1000
	h.Timestamp = 90000
	h.Ssrc = 0x11223344
	pkt := rtprtcp.MakeRtpPacket(h, []byte{0x1, 0x2, 0x3})

	h2, err := rtprtcp.ParseRtpHeader(pkt.Raw)
	assert.Equal(t, nil, err)
	assert.Equal(t, uint8(2), h2.Version)
	assert.Equal(t, uint8(1), h2.Mark)
	assert.Equal(t, uint8(96), h2.PacketType)
	assert.Equal(t, uint16(1000), h2.Seq)
	assert.Equal(t, uint32(90000), h2.Timestamp)
	assert.Equal(t, uint32(0x11223344), h2.Ssrc)

	pkt2, err := rtprtcp.ParseRtpPacket(pkt.Raw)
	assert.Equal(t, nil, err)
	assert.Equal(t, []byte{0x1, 0x2, 0x3}, pkt2.Body())
}

func TestParseRtpHeaderMalformed(t *testing.T) {
	// 长度不足
	_, err := rtprtcp.ParseRtpHeader(make([]byte, 11))
	assert.IsNotNil(t, err)

	// 版本号不是2
	b := make([]byte, 12)
	b[0] = 0x40
	_, err = rtprtcp.ParseRtpHeader(b)
	assert.IsNotNil(t, err)

	// csrc列表声明长度超过数据长度
	b = make([]byte, 12)
	b[0] = 0x8F // V=2, CC=15
	_, err = rtprtcp.ParseRtpHeader(b)
	assert.IsNotNil(t, err)
}

// 任意csrc个数和扩展部分组合，payload切片与原始数据的payload区域完全一致
func TestParseRtpHeaderCsrcExtension(t *testing.T) {
	payload := []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE}

	for cc := 0; cc <= 15; cc++ {
		for _, withExt := range []bool{false, true} {
			const extLenInWords = 3

			size := 12 + cc*4
			if withExt {
				size += 4 + extLenInWords*4
			}
			b := make([]byte, size, size+len(payload))

			b[0] = 0x80 | uint8(cc)
			if withExt {
				b[0] |= 0x10
			}
			b[1] = 96
			bele.BePutUint16(b[2:], 5000)
			bele.BePutUint32(b[4:], 180000)
			bele.BePutUint32(b[8:], 0xCAFE)
			for i := 0; i < cc; i++ {
				bele.BePutUint32(b[12+i*4:], uint32(i))
			}
			if withExt {
				offset := 12 + cc*4
				bele.BePutUint16(b[offset:], 0xBEDE)
				bele.BePutUint16(b[offset+2:], extLenInWords)
			}
			b = append(b, payload...)

			pkt, err := rtprtcp.ParseRtpPacket(b)
			assert.Equal(t, nil, err)
			assert.Equal(t, uint8(cc), pkt.Header.CsrcCount)
			assert.Equal(t, payload, pkt.Body())
			if withExt {
				assert.Equal(t, uint16(0xBEDE), pkt.Header.ExtensionProfile)
			}
		}
	}
}

func TestParseRtpHeaderPadding(t *testing.T) {
	h := rtprtcp.MakeDefaultRtpHeader()
	h.PacketType = 96
	pkt := rtprtcp.MakeRtpPacket(h, []byte{0x1, 0x2, 0x3, 0x0, 0x0, 0x3})
	pkt.Raw[0] |= 0x20 // padding标志，payload末尾3字节是padding

	pkt2, err := rtprtcp.ParseRtpPacket(pkt.Raw)
	assert.Equal(t, nil, err)
	assert.Equal(t, []byte{0x1, 0x2, 0x3}, pkt2.Body())
}

func TestClassifyPacket(t *testing.T) {
	// 长度不足
	assert.Equal(t, rtprtcp.PacketKindInvalid, rtprtcp.ClassifyPacket(make([]byte, 11)))

	// 版本号不是2
	b := make([]byte, 12)
	b[0] = 0x40
	assert.Equal(t, rtprtcp.PacketKindInvalid, rtprtcp.ClassifyPacket(b))
	b[0] = 0xC0
	assert.Equal(t, rtprtcp.PacketKindInvalid, rtprtcp.ClassifyPacket(b))

	// rtcp包类型
	for _, pt := range []uint8{200, 201, 202, 203, 205, 206} {
		b[0] = 0x80
		b[1] = pt
		assert.Equal(t, rtprtcp.PacketKindRtcp, rtprtcp.ClassifyPacket(b))
	}

	// rtp，payload type 96带marker时次字节为224，不与rtcp类型冲突
	b[0] = 0x80
	b[1] = 96
	assert.Equal(t, rtprtcp.PacketKindRtp, rtprtcp.ClassifyPacket(b))
	b[1] = 0xE0
	assert.Equal(t, rtprtcp.PacketKindRtp, rtprtcp.ClassifyPacket(b))
	b[1] = 204 // app包不在关注列表中，按rtp处理
	assert.Equal(t, rtprtcp.PacketKindRtp, rtprtcp.ClassifyPacket(b))
}

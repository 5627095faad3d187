// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/rtprecv
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package vp8

import (
	"github.com/q191201771/rtprecv/pkg/base"
)

// --------------------------------------------
// rfc7741 4.2. VP8 Payload Descriptor
// --------------------------------------------
//
//       0 1 2 3 4 5 6 7
//      +-+-+-+-+-+-+-+-+
//      |X|R|N|S|R| PID | (REQUIRED)
//      +-+-+-+-+-+-+-+-+
// X:   |I|L|T|K| RSV   | (OPTIONAL)
//      +-+-+-+-+-+-+-+-+
// I:   |M| PictureID   | (OPTIONAL)
//      +-+-+-+-+-+-+-+-+
//      |   PictureID   |
//      +-+-+-+-+-+-+-+-+
// L:   |   TL0PICIDX   | (OPTIONAL)
//      +-+-+-+-+-+-+-+-+
// T/K: |TID|Y| KEYIDX  | (OPTIONAL)
//      +-+-+-+-+-+-+-+-+

type PayloadDescriptor struct {
	X            bool
	N            bool // non-reference frame
	S            bool // start of VP8 partition
	PartId       uint8
	HasPictureId bool
	PictureId    uint16 // 7位或15位
	HasTl0PicIdx bool
	Tl0PicIdx    uint8

	Length int // descriptor占用的字节数，payload数据从该偏移开始
}

// ParsePayloadDescriptor 解析rtp payload头部的VP8 payload descriptor
//
// 各可选字段是否存在由标志位决定，逐个跳过，从而得到payload数据的起始位置
func ParsePayloadDescriptor(b []byte) (d PayloadDescriptor, err error) {
	if len(b) < 1 {
		return d, base.ErrVp8ShortBuffer
	}

	d.X = b[0]&0x80 != 0
	d.N = b[0]&0x20 != 0
	d.S = b[0]&0x10 != 0
	d.PartId = b[0] & 0x0F
	index := 1

	if d.X {
		if len(b) < index+1 {
			return d, base.ErrVp8ShortBuffer
		}
		xByte := b[index]
		index++

		hasI := xByte&0x80 != 0
		hasL := xByte&0x40 != 0
		hasT := xByte&0x20 != 0
		hasK := xByte&0x10 != 0

		if hasI {
			if len(b) < index+1 {
				return d, base.ErrVp8ShortBuffer
			}
			d.HasPictureId = true
			if b[index]&0x80 != 0 {
				// M位，15位PictureID
				if len(b) < index+2 {
					return d, base.ErrVp8ShortBuffer
				}
				d.PictureId = uint16(b[index]&0x7F)<<8 | uint16(b[index+1])
				index += 2
			} else {
				d.PictureId = uint16(b[index] & 0x7F)
				index++
			}
		}

		if hasL {
			if len(b) < index+1 {
				return d, base.ErrVp8ShortBuffer
			}
			d.HasTl0PicIdx = true
			d.Tl0PicIdx = b[index]
			index++
		}

		if hasT || hasK {
			if len(b) < index+1 {
				return d, base.ErrVp8ShortBuffer
			}
			index++
		}
	}

	if index > len(b) {
		return d, base.ErrVp8InvalidDescriptor
	}

	d.Length = index
	return d, nil
}

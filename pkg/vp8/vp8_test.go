// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/rtprecv
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package vp8_test

import (
	"testing"

	"github.com/q191201771/naza/pkg/assert"
	"github.com/q191201771/rtprecv/pkg/vp8"
)

func TestParsePayloadDescriptor(t *testing.T) {
	// 最小形式，只有必选字节
	d, err := vp8.ParsePayloadDescriptor([]byte{0x10, 0x9D})
	assert.Equal(t, nil, err)
	assert.Equal(t, true, d.S)
	assert.Equal(t, false, d.X)
	assert.Equal(t, uint8(0), d.PartId)
	assert.Equal(t, 1, d.Length)

	// partid
	d, err = vp8.ParsePayloadDescriptor([]byte{0x03})
	assert.Equal(t, nil, err)
	assert.Equal(t, false, d.S)
	assert.Equal(t, uint8(3), d.PartId)

	// X + I，7位picture id
	d, err = vp8.ParsePayloadDescriptor([]byte{0x90, 0x80, 0x11, 0xFF})
	assert.Equal(t, nil, err)
	assert.Equal(t, true, d.HasPictureId)
	assert.Equal(t, uint16(0x11), d.PictureId)
	assert.Equal(t, 3, d.Length)

	// X + I，15位picture id
	d, err = vp8.ParsePayloadDescriptor([]byte{0x90, 0x80, 0x85, 0x01, 0xFF})
	assert.Equal(t, nil, err)
	assert.Equal(t, uint16(0x0501), d.PictureId)
	assert.Equal(t, 4, d.Length)

	// X + I + L + T/K
	d, err = vp8.ParsePayloadDescriptor([]byte{0x90, 0xF0, 0x05, 0x07, 0x20, 0xFF})
	assert.Equal(t, nil, err)
	assert.Equal(t, uint16(0x05), d.PictureId)
	assert.Equal(t, true, d.HasTl0PicIdx)
	assert.Equal(t, uint8(0x07), d.Tl0PicIdx)
	assert.Equal(t, 5, d.Length)

	// N位
	d, err = vp8.ParsePayloadDescriptor([]byte{0x20})
	assert.Equal(t, nil, err)
	assert.Equal(t, true, d.N)
}

func TestParsePayloadDescriptorShortBuffer(t *testing.T) {
	_, err := vp8.ParsePayloadDescriptor(nil)
	assert.IsNotNil(t, err)

	// 声明了X字节但数据不足
	_, err = vp8.ParsePayloadDescriptor([]byte{0x80})
	assert.IsNotNil(t, err)

	// 声明了15位picture id但只有1字节
	_, err = vp8.ParsePayloadDescriptor([]byte{0x80, 0x80, 0x85})
	assert.IsNotNil(t, err)
}

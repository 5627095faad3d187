// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/rtprecv
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import "errors"

// ----- 通用的 ---------------------------------------------------------------------------------------------------------

var ErrShortBuffer = errors.New("rtprecv: buffer too short")

// ----- pkg/avc -------------------------------------------------------------------------------------------------------

var ErrAvc = errors.New("rtprecv.avc: fxxk")

// ----- pkg/vp8 -------------------------------------------------------------------------------------------------------

var (
	ErrVp8ShortBuffer       = errors.New("rtprecv.vp8: buffer too short")
	ErrVp8NotStartOfFrame   = errors.New("rtprecv.vp8: packet is not start of frame")
	ErrVp8InvalidDescriptor = errors.New("rtprecv.vp8: invalid payload descriptor")
)

// ----- pkg/rtprtcp ---------------------------------------------------------------------------------------------------

var (
	ErrMalformedRtpHeader  = errors.New("rtprecv.rtprtcp: malformed rtp header")
	ErrMalformedRtcpPacket = errors.New("rtprecv.rtprtcp: malformed rtcp packet")
	ErrOversizeFrame       = errors.New("rtprecv.rtprtcp: reassembled frame exceeds max size")
)

// ----- pkg/sdp -------------------------------------------------------------------------------------------------------

var ErrSdp = errors.New("rtprecv.sdp: fxxk")

// ----- pkg/receiver --------------------------------------------------------------------------------------------------

var (
	ErrReceiverDisposed    = errors.New("rtprecv.receiver: receiver already disposed")
	ErrUnknownPayloadType  = errors.New("rtprecv.receiver: payload type has no codec mapping")
	ErrEndpointMismatch    = errors.New("rtprecv.receiver: rtp packet from unexpected endpoint")
	ErrFrameHandlerMissing = errors.New("rtprecv.receiver: video frame handler not set")
)

// ---------------------------------------------------------------------------------------------------------------------

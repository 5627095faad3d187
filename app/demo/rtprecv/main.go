// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/rtprecv
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/q191201771/rtprecv/pkg/base"
	"github.com/q191201771/rtprecv/pkg/receiver"
	"github.com/q191201771/rtprecv/pkg/sdp"
)

// 监听udp端口接收rtp视频流，h264帧以AnnexB格式落盘，vp8帧以裸数据落盘
//
// Usage:
//   ./bin/rtprecv -p 5004 -o out.h264
//   ./bin/rtprecv -p 5004 -sdp desc.sdp -o out.vp8

func main() {
	port, sdpFilename, outFilename := parseFlag()

	out, err := os.Create(outFilename)
	nazalog.Assert(nil, err)
	defer out.Close()

	r := receiver.NewReceiver(func(option *receiver.Option) {
		option.BindPort = uint16(port)
		if sdpFilename != "" {
			raw, err := ioutil.ReadFile(sdpFilename)
			nazalog.Assert(nil, err)
			option.PayloadTypeMap, err = sdp.ParseVideoPayloadTypes(string(raw))
			nazalog.Assert(nil, err)
		}
	})

	var frameCount int
	r.WithOnVideoFrame(func(frame base.VideoFrame) {
		frameCount++
		nazalog.Debugf("frame. index=%d, codec=%s, ts=%d, key=%v, size=%d",
			frame.StreamIndex, frame.Codec.ReadableString(), frame.RtpTimestamp, frame.IsKeyFrame, len(frame.Payload))
		_, err := out.Write(frame.Payload)
		nazalog.Assert(nil, err)
	}).WithOnBye(func(ssrc uint32, reason string) {
		nazalog.Infof("bye. ssrc=%d, reason=%s, frameCount=%d", ssrc, reason, frameCount)
	})

	src := receiver.NewUdpSource(r)
	err = src.Listen()
	nazalog.Assert(nil, err)
	err = src.RunLoop()
	nazalog.Error(err)
}

func parseFlag() (port int, sdpFilename string, outFilename string) {
	p := flag.Int("p", 5004, "specify udp listen port")
	s := flag.String("sdp", "", "specify sdp file for payload type mapping, optional")
	o := flag.String("o", "", "specify output file")
	flag.Parse()
	if *o == "" {
		flag.Usage()
		_, _ = fmt.Fprintf(os.Stderr, `Example:
  ./bin/rtprecv -p 5004 -o out.h264
`)
		os.Exit(1)
	}
	return *p, *s, *o
}

// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/rtprecv
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"

	ts "github.com/asticode/go-astits"
	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/q191201771/rtprecv/pkg/base"
	"github.com/q191201771/rtprecv/pkg/receiver"
)

// 接收h264 rtp流，用mpegts封装后写入文件
//
// Usage:
//   ./bin/rtp2ts -p 5004 -o out.ts

const videoPid = 256

func main() {
	port, outFilename := parseFlag()

	out, err := os.Create(outFilename)
	nazalog.Assert(nil, err)
	defer out.Close()
	w := bufio.NewWriter(out)
	defer w.Flush()

	muxer := ts.NewMuxer(context.Background(), w)
	err = muxer.AddElementaryStream(ts.PMTElementaryStream{
		ElementaryPID: videoPid,
		StreamType:    ts.StreamTypeH264Video,
	})
	nazalog.Assert(nil, err)
	muxer.SetPCRPID(videoPid)

	r := receiver.NewReceiver(func(option *receiver.Option) {
		option.BindPort = uint16(port)
	})
	r.WithOnVideoFrame(func(frame base.VideoFrame) {
		if frame.Codec != base.VideoCodecAvc {
			return
		}
		_, err := muxer.WriteData(&ts.MuxerData{
			PID: videoPid,
			AdaptationField: &ts.PacketAdaptationField{
				RandomAccessIndicator: frame.IsKeyFrame,
			},
			PES: &ts.PESData{
				Header: &ts.PESHeader{
					OptionalHeader: &ts.PESOptionalHeader{
						MarkerBits:      2,
						PTSDTSIndicator: ts.PTSDTSIndicatorOnlyPTS,
						PTS:             &ts.ClockReference{Base: int64(frame.RtpTimestamp)},
					},
					StreamID: 224, // video stream
				},
				Data: frame.Payload,
			},
		})
		if err != nil {
			nazalog.Errorf("mux ts failed. err=%+v", err)
		}
	})

	src := receiver.NewUdpSource(r)
	err = src.Listen()
	nazalog.Assert(nil, err)
	err = src.RunLoop()
	nazalog.Error(err)
}

func parseFlag() (port int, outFilename string) {
	p := flag.Int("p", 5004, "specify udp listen port")
	o := flag.String("o", "", "specify output ts file")
	flag.Parse()
	if *o == "" {
		flag.Usage()
		_, _ = fmt.Fprintf(os.Stderr, `Example:
  ./bin/rtp2ts -p 5004 -o out.ts
`)
		os.Exit(1)
	}
	return *p, *o
}

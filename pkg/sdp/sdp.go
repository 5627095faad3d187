// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/rtprecv
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package sdp

import (
	"strings"

	"github.com/pixelbender/go-sdp/sdp"
	"github.com/q191201771/rtprecv/pkg/base"
)

// 从sdp中提取视频payload type到编码格式的映射，供receiver配置使用
//
// 形如：
// m=video 5004 RTP/AVP 96
// a=rtpmap:96 H264/90000

// ParseVideoPayloadTypes 解析sdp文本，返回video media中声明的payload type映射
//
// 不认识的编码名称被跳过；没有任何可用映射时返回错误
func ParseVideoPayloadTypes(rawSdp string) (map[uint8]base.VideoCodec, error) {
	session, err := sdp.ParseString(rawSdp)
	if err != nil {
		return nil, err
	}

	m := make(map[uint8]base.VideoCodec)
	for _, media := range session.Media {
		if media.Type != "video" {
			continue
		}
		for _, format := range media.Format {
			switch strings.ToUpper(format.Name) {
			case "H264":
				m[uint8(format.Payload)] = base.VideoCodecAvc
			case "VP8":
				m[uint8(format.Payload)] = base.VideoCodecVp8
			}
		}
	}

	if len(m) == 0 {
		return nil, base.ErrSdp
	}
	return m, nil
}

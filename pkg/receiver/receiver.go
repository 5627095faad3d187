// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/rtprecv
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package receiver

import (
	"encoding/hex"
	"net"
	"sync"

	"github.com/q191201771/naza/pkg/nazaatomic"
	"github.com/q191201771/naza/pkg/nazabytes"
	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/q191201771/naza/pkg/unique"
	"github.com/q191201771/rtprecv/pkg/base"
	"github.com/q191201771/rtprecv/pkg/rtprtcp"
)

// Receiver 单路udp端点上的rtp视频接收核心
//
// 职责：区分rtp和rtcp，按ssrc将rtp包路由到对应流的合帧器，合成的帧通过回调返回业务方
//
// 线程模型：所有状态（ssrc表、各流的合帧缓冲、序号跟踪）都只在调用 OnDatagram 的协程上修改，
// 内部不加锁，socket层负责串行回调
type Receiver struct {
	UniqueKey string

	option Option

	onVideoFrame base.OnVideoFrame
	onBye        OnBye
	onRtcpReply  OnRtcpReply
	onClosed     OnClosed

	streams              map[uint32]*stream
	nextStreamIndex      int
	loggedUnknownPtSsrcs map[uint32]struct{}

	disposedFlag nazaatomic.Bool
	disposeOnce  sync.Once

	// 诊断计数
	invalidDatagramCount    nazaatomic.Uint32
	malformedRtpCount       nazaatomic.Uint32
	unknownPayloadTypeCount nazaatomic.Uint32
	seqJumpCount            nazaatomic.Uint32
	endpointMismatchCount   nazaatomic.Uint32
	byeCount                nazaatomic.Uint32
	ignoredRtcpCount        nazaatomic.Uint32

	// only for debug log
	debugLogMaxCount       uint32
	loggedInvalidCount     nazaatomic.Uint32
	loggedMalformedCount   nazaatomic.Uint32
	loggedSeqJumpCount     nazaatomic.Uint32
	loggedReadRtcpCount    nazaatomic.Uint32
	loggedReadSrCount      nazaatomic.Uint32
	loggedReadVideoRtpFlag nazaatomic.Bool
}

type Option struct {
	// BindAddress BindPort socket层绑定的本地地址和端口，核心自身不使用，供 UdpSource 读取
	BindAddress string
	BindPort    uint16

	// MaxReconstructedFrameSize 合成单帧的大小上限，超过的帧被丢弃
	MaxReconstructedFrameSize int

	// AcceptRtpFromAny 为true时，一个ssrc的远端地址可以随时更换，不经过NAT启发式判断
	AcceptRtpFromAny bool

	// PayloadTypeMap rtp包头中payload type到编码格式的映射，可由 pkg/sdp 从sdp生成
	PayloadTypeMap map[uint8]base.VideoCodec

	// VideoClockRate rr统计使用的时钟频率
	VideoClockRate int
}

var defaultOption = Option{
	BindAddress:               "0.0.0.0",
	BindPort:                  0,
	MaxReconstructedFrameSize: rtprtcp.MaxReconstructedVideoFrameSize,
	AcceptRtpFromAny:          false,
	VideoClockRate:            90000,
}

type ModOption func(option *Option)

// OnBye 收到匹配某个流的rtcp bye包时回调，流已被销毁
type OnBye func(ssrc uint32, reason string)

// OnRtcpReply 产生了需要回发给对端的rtcp包（rr），由socket层负责发送
type OnRtcpReply func(b []byte, raddr *net.UDPAddr)

// OnClosed Dispose或socket层致命错误时回调一次
type OnClosed func(err error)

// Stat 各类丢包和诊断计数，所有错误在内部消化，只通过这里向外暴露
type Stat struct {
	InvalidDatagramCount    uint32
	MalformedRtpCount       uint32
	UnknownPayloadTypeCount uint32
	SeqJumpCount            uint32
	EndpointMismatchCount   uint32
	OversizeFrameCount      uint32
	DiscardedFrameCount     uint32
	ByeCount                uint32
	IgnoredRtcpCount        uint32
	StreamCount             int
}

func NewReceiver(modOptions ...ModOption) *Receiver {
	option := defaultOption
	for _, fn := range modOptions {
		fn(&option)
	}
	if option.PayloadTypeMap == nil {
		// 默认96和97按h264处理，vp8等动态类型需要业务方或sdp声明
		option.PayloadTypeMap = map[uint8]base.VideoCodec{
			96: base.VideoCodecAvc,
			97: base.VideoCodecAvc,
		}
	}

	uk := unique.GenUniqueKey("RTPRECV")
	r := &Receiver{
		UniqueKey:            uk,
		option:               option,
		streams:              make(map[uint32]*stream),
		loggedUnknownPtSsrcs: make(map[uint32]struct{}),
		debugLogMaxCount:     3,
	}
	nazalog.Infof("[%s] lifecycle new receiver. receiver=%p", uk, r)
	return r
}

// WithOnVideoFrame 注册合帧回调，一个receiver恰好对应一个回调
func (r *Receiver) WithOnVideoFrame(onVideoFrame base.OnVideoFrame) *Receiver {
	r.onVideoFrame = onVideoFrame
	return r
}

func (r *Receiver) WithOnBye(onBye OnBye) *Receiver {
	r.onBye = onBye
	return r
}

func (r *Receiver) WithOnRtcpReply(onRtcpReply OnRtcpReply) *Receiver {
	r.onRtcpReply = onRtcpReply
	return r
}

func (r *Receiver) WithOnClosed(onClosed OnClosed) *Receiver {
	r.onClosed = onClosed
	return r
}

// OnDatagram socket层每收到一个udp datagram调用一次
//
// @param b 调用结束后，内部不持有该内存块，需要留存的部分会拷贝
func (r *Receiver) OnDatagram(localPort uint16, raddr *net.UDPAddr, b []byte) {
	if r.disposedFlag.Load() {
		return
	}

	switch rtprtcp.ClassifyPacket(b) {
	case rtprtcp.PacketKindRtp:
		r.handleRtpPacket(raddr, b)
	case rtprtcp.PacketKindRtcp:
		r.handleRtcpPacket(raddr, b)
	default:
		r.invalidDatagramCount.Increment()
		if r.loggedInvalidCount.Load() < r.debugLogMaxCount {
			nazalog.Debugf("[%s] invalid datagram dropped. len=%d, b=%s",
				r.UniqueKey, len(b), hex.Dump(nazabytes.Prefix(b, 16)))
			r.loggedInvalidCount.Increment()
		}
	}
}

// Dispose 关闭所有流，释放合成中的缓冲，清空回调。幂等，之后的datagram被丢弃
func (r *Receiver) Dispose(reason string) {
	r.disposeOnce.Do(func() {
		nazalog.Infof("[%s] lifecycle dispose receiver. reason=%s", r.UniqueKey, reason)
		r.disposedFlag.Store(true)
		for _, s := range r.streams {
			s.unpacker.Reset()
		}
		r.streams = make(map[uint32]*stream)
		r.onVideoFrame = nil
		if r.onClosed != nil {
			r.onClosed(nil)
		}
	})
}

func (r *Receiver) GetStat() Stat {
	stat := Stat{
		InvalidDatagramCount:    r.invalidDatagramCount.Load(),
		MalformedRtpCount:       r.malformedRtpCount.Load(),
		UnknownPayloadTypeCount: r.unknownPayloadTypeCount.Load(),
		SeqJumpCount:            r.seqJumpCount.Load(),
		EndpointMismatchCount:   r.endpointMismatchCount.Load(),
		ByeCount:                r.byeCount.Load(),
		IgnoredRtcpCount:        r.ignoredRtcpCount.Load(),
		StreamCount:             len(r.streams),
	}
	for _, s := range r.streams {
		stat.OversizeFrameCount += s.unpacker.OversizeFrameCount()
		stat.DiscardedFrameCount += s.unpacker.DiscardedFrameCount()
	}
	return stat
}

// ---------------------------------------------------------------------------------------------------------------------

func (r *Receiver) handleRtpPacket(raddr *net.UDPAddr, b []byte) {
	h, err := rtprtcp.ParseRtpHeader(b)
	if err != nil {
		r.malformedRtpCount.Increment()
		if r.loggedMalformedCount.Load() < r.debugLogMaxCount {
			nazalog.Warnf("[%s] parse rtp header failed. err=%+v, len=%d", r.UniqueKey, err, len(b))
			r.loggedMalformedCount.Increment()
		}
		return
	}

	s := r.streams[h.Ssrc]
	if s == nil {
		codec, ok := r.option.PayloadTypeMap[h.PacketType]
		if !ok {
			r.dropUnknownPayloadType(h)
			return
		}

		s = newStream(r.nextStreamIndex, h.Ssrc, codec, raddr, r.option, r.onFrameOfStream)
		r.nextStreamIndex++
		r.streams[h.Ssrc] = s
		nazalog.Infof("[%s] new stream. ssrc=%d, codec=%s, raddr=%s, index=%d",
			r.UniqueKey, h.Ssrc, codec.ReadableString(), raddr.String(), s.index)
	} else {
		if _, ok := r.option.PayloadTypeMap[h.PacketType]; !ok {
			r.dropUnknownPayloadType(h)
			return
		}

		if !udpAddrEqual(s.remoteAddr, raddr) && !r.rebindEndpoint(s, raddr) {
			return
		}
	}

	if !r.loggedReadVideoRtpFlag.Load() {
		nazalog.Debugf("[%s] LOGPACKET. read video rtp=%+v, len=%d", r.UniqueKey, h, len(b))
		r.loggedReadVideoRtpFlag.Store(true)
	}

	// 序号不连续只告警不丢弃，合帧器自身具备乱序恢复能力
	if jump, prevSeq := s.feedSeq(h.Seq); jump {
		r.seqJumpCount.Increment()
		if r.loggedSeqJumpCount.Load() < r.debugLogMaxCount {
			nazalog.Warnf("[%s] rtp seq jump. ssrc=%d, lastSeq=%d, seq=%d",
				r.UniqueKey, h.Ssrc, prevSeq, h.Seq)
			r.loggedSeqJumpCount.Increment()
		}
	}

	s.rrProducer.FeedRtpPacket(h.Seq, h.Timestamp)

	// 合帧器会跨越本次调用持有包数据，拷贝一份
	pkt, err := rtprtcp.ParseRtpPacket(b)
	if err != nil {
		r.malformedRtpCount.Increment()
		return
	}
	s.unpacker.Feed(pkt)
}

func (r *Receiver) handleRtcpPacket(raddr *net.UDPAddr, b []byte) {
	if r.loggedReadRtcpCount.Load() < r.debugLogMaxCount {
		nazalog.Debugf("[%s] LOGPACKET. read rtcp=%s", r.UniqueKey, hex.Dump(nazabytes.Prefix(b, 32)))
		r.loggedReadRtcpCount.Increment()
	}

	err := rtprtcp.IterateRtcpPackets(b, func(h rtprtcp.RtcpHeader, sub []byte) bool {
		switch h.PacketType {
		case rtprtcp.RtcpPacketTypeSr:
			sr, err := rtprtcp.ParseSr(sub)
			if err != nil {
				return true
			}
			if r.loggedReadSrCount.Load() < r.debugLogMaxCount {
				nazalog.Debugf("[%s] LOGPACKET. sr=%+v, senderUnixNano=%d",
					r.UniqueKey, sr, rtprtcp.MswLsw2UnixNano(uint64(sr.Msw), uint64(sr.Lsw)))
				r.loggedReadSrCount.Increment()
			}
			if s, ok := r.streams[sr.SenderSsrc]; ok {
				if rrBuf := s.rrProducer.Produce(sr.GetMiddleNtp()); rrBuf != nil && r.onRtcpReply != nil {
					r.onRtcpReply(rrBuf, raddr)
				}
			}
		case rtprtcp.RtcpPacketTypeBye:
			bye, err := rtprtcp.ParseBye(sub)
			if err != nil {
				return true
			}
			for _, ssrc := range bye.Ssrcs {
				s, ok := r.streams[ssrc]
				if !ok {
					continue
				}
				r.byeCount.Increment()
				nazalog.Infof("[%s] recv rtcp bye, dispose stream. ssrc=%d, reason=%s", r.UniqueKey, ssrc, bye.Reason)
				s.unpacker.Reset()
				delete(r.streams, ssrc)
				if r.onBye != nil {
					r.onBye(ssrc, bye.Reason)
				}
			}
		default:
			// rr、sdes以及205/206反馈消息只计数
			r.ignoredRtcpCount.Increment()
		}
		return true
	})
	if err != nil {
		r.invalidDatagramCount.Increment()
	}
}

// rebindEndpoint 同ssrc的包来自另一个远端地址时的处理
//
// @return 是否接受这个包
func (r *Receiver) rebindEndpoint(s *stream, raddr *net.UDPAddr) bool {
	if r.option.AcceptRtpFromAny {
		nazalog.Infof("[%s] stream endpoint rebind. ssrc=%d, %s -> %s",
			r.UniqueKey, s.ssrc, s.remoteAddr.String(), raddr.String())
		s.remoteAddr = raddr
		return true
	}

	// NAT穿越场景：先从私网地址收到包，随后同一ssrc从公网地址出现，此时重绑一次
	if !s.natRebindDone && isPrivateIp(s.remoteAddr.IP) && !isPrivateIp(raddr.IP) {
		nazalog.Infof("[%s] stream endpoint rebind, private to public. ssrc=%d, %s -> %s",
			r.UniqueKey, s.ssrc, s.remoteAddr.String(), raddr.String())
		s.remoteAddr = raddr
		s.natRebindDone = true
		return true
	}

	r.endpointMismatchCount.Increment()
	nazalog.Warnf("[%s] rtp packet from unexpected endpoint, dropped. ssrc=%d, expected=%s, actual=%s",
		r.UniqueKey, s.ssrc, s.remoteAddr.String(), raddr.String())
	return false
}

func (r *Receiver) dropUnknownPayloadType(h rtprtcp.RtpHeader) {
	r.unknownPayloadTypeCount.Increment()
	if _, logged := r.loggedUnknownPtSsrcs[h.Ssrc]; !logged {
		r.loggedUnknownPtSsrcs[h.Ssrc] = struct{}{}
		nazalog.Warnf("[%s] rtp payload type has no codec mapping, dropped. ssrc=%d, pt=%d", r.UniqueKey, h.Ssrc, h.PacketType)
	}
}

// callback by stream unpacker
func (r *Receiver) onFrameOfStream(s *stream, payload []byte, rtpTimestamp uint32, isKeyFrame bool) {
	if r.onVideoFrame == nil {
		return
	}
	r.onVideoFrame(base.VideoFrame{
		StreamIndex:  s.index,
		RemoteAddr:   s.remoteAddr,
		RtpTimestamp: rtpTimestamp,
		Codec:        s.codec,
		IsKeyFrame:   isKeyFrame,
		Payload:      payload,
	})
}

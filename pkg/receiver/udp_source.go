// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/rtprecv
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package receiver

import (
	"fmt"
	"net"
	"sync"

	"github.com/q191201771/naza/pkg/connection"
	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/q191201771/naza/pkg/nazanet"
	"github.com/q191201771/rtprecv/pkg/rtprtcp"
)

// UdpSource receiver的socket层搭档
//
// 绑定本地udp端点，将读到的datagram逐个送入 Receiver.OnDatagram，
// 并代为发送receiver产生的rtcp回包。
// 读回调由nazanet在单个协程上串行执行，满足receiver的线程模型
type UdpSource struct {
	receiver *Receiver
	conn     *nazanet.UdpConnection

	localPort    uint16
	currConnStat connection.StatAtomic

	disposeOnce sync.Once
}

func NewUdpSource(receiver *Receiver) *UdpSource {
	s := &UdpSource{
		receiver:  receiver,
		localPort: receiver.option.BindPort,
	}
	receiver.WithOnRtcpReply(s.onRtcpReply)
	return s
}

// Listen 绑定Option中声明的本地地址和端口
func (s *UdpSource) Listen() error {
	addr := net.JoinHostPort(s.receiver.option.BindAddress, fmt.Sprintf("%d", s.receiver.option.BindPort))
	conn, err := nazanet.NewUdpConnection(func(option *nazanet.UdpConnectionOption) {
		option.LAddr = addr
		option.MaxReadPacketSize = rtprtcp.MaxRtpRtcpPacketSize
	})
	if err != nil {
		return err
	}
	s.conn = conn
	return nil
}

// RunLoop 阻塞直到Dispose或读取发生致命错误
func (s *UdpSource) RunLoop() error {
	return s.conn.RunLoop(s.onReadUdpPacket)
}

func (s *UdpSource) Dispose() error {
	var retErr error
	s.disposeOnce.Do(func() {
		nazalog.Infof("[%s] lifecycle dispose udp source.", s.receiver.UniqueKey)
		if s.conn != nil {
			retErr = s.conn.Dispose()
		}
	})
	return retErr
}

func (s *UdpSource) GetStat() connection.Stat {
	var stat connection.Stat
	stat.ReadBytesSum = s.currConnStat.ReadBytesSum.Load()
	stat.WroteBytesSum = s.currConnStat.WroteBytesSum.Load()
	return stat
}

// callback by UdpConnection
func (s *UdpSource) onReadUdpPacket(b []byte, raddr *net.UDPAddr, err error) bool {
	if err != nil {
		nazalog.Warnf("[%s] read udp packet failed. err=%+v", s.receiver.UniqueKey, err)
		return true
	}

	s.currConnStat.ReadBytesSum.Add(uint64(len(b)))
	s.receiver.OnDatagram(s.localPort, raddr, b)
	return true
}

// callback by Receiver
func (s *UdpSource) onRtcpReply(b []byte, raddr *net.UDPAddr) {
	if s.conn == nil {
		return
	}
	if err := s.conn.Write2Addr(b, raddr); err != nil {
		nazalog.Warnf("[%s] write rtcp reply failed. err=%+v", s.receiver.UniqueKey, err)
		return
	}
	s.currConnStat.WroteBytesSum.Add(uint64(len(b)))
}

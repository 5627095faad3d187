// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/rtprecv
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package rtprtcp

type RtpPacketListItem struct {
	Packet RtpPacket
	Next   *RtpPacketListItem
}

// RtpPacketList 按seq从小到大排序的链表，seq比较规则见 CompareSeq
type RtpPacketList struct {
	Head RtpPacketListItem // 哨兵，自身不存放rtp包，第一个rtp包存在在head.next中
	Size int               // 实际元素个数
}

// Insert 按seq序插入，seq相同的包（重复包）丢弃
func (l *RtpPacketList) Insert(pkt RtpPacket) {
	p := &l.Head
	for ; p.Next != nil; p = p.Next {
		res := CompareSeq(pkt.Header.Seq, p.Next.Packet.Header.Seq)
		switch res {
		case 0:
			return
		case 1:
			// noop
		case -1:
			item := &RtpPacketListItem{
				Packet: pkt,
				Next:   p.Next,
			}
			p.Next = item
			l.Size++
			return
		}
	}

	item := &RtpPacketListItem{
		Packet: pkt,
		Next:   p.Next,
	}
	p.Next = item
	l.Size++
}

// PopFirst 弹出首个元素，没有元素时返回nil
func (l *RtpPacketList) PopFirst() *RtpPacketListItem {
	first := l.Head.Next
	if first == nil {
		return nil
	}
	l.Head.Next = first.Next
	l.Size--
	return first
}

func (l *RtpPacketList) Reset() {
	l.Head.Next = nil
	l.Size = 0
}

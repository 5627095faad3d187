// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/rtprecv
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package receiver

import "net"

func udpAddrEqual(a, b *net.UDPAddr) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Port == b.Port && a.IP.Equal(b.IP)
}

var privateCidrs []*net.IPNet

func init() {
	for _, cidr := range []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"169.254.0.0/16",
		"fc00::/7",
		"fe80::/10",
		"::1/128",
	} {
		_, n, _ := net.ParseCIDR(cidr)
		privateCidrs = append(privateCidrs, n)
	}
}

// isPrivateIp 判断地址是否为私网、环回或链路本地地址
func isPrivateIp(ip net.IP) bool {
	for _, n := range privateCidrs {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

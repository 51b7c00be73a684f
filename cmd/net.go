package main

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// resolveAddress completes a partial host:port typed by a user. A host made of
// one to four octets is filled in from the local IPv4 address, so "42" on
// 192.168.0.7 becomes 192.168.0.42. A missing port becomes defaultPort and a
// host name is kept as is.
func resolveAddress(local net.IP, addr string, defaultPort int) (string, error) {
	host, port, err := splitHostPort(addr, defaultPort)
	if err != nil {
		return "", err
	}
	if strings.Trim(host, "0123456789.") != "" {
		return net.JoinHostPort(host, port), nil
	}
	ip, err := guessIPAddress(local, host)
	if err != nil {
		return "", err
	}
	return net.JoinHostPort(ip.String(), port), nil
}

// guessIPAddress replaces the trailing octets of base with the ones in partial.
func guessIPAddress(base net.IP, partial string) (net.IP, error) {
	v4 := base.To4()
	if v4 == nil {
		return nil, fmt.Errorf("base address %v is not IPv4", base)
	}
	ip := make(net.IP, net.IPv4len)
	copy(ip, v4)
	if partial == "" {
		return ip, nil
	}
	octets := strings.Split(partial, ".")
	if len(octets) > net.IPv4len {
		return nil, fmt.Errorf("too many octets in %q", partial)
	}
	for i, o := range octets {
		b, err := strconv.ParseUint(o, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("octet %q: %w", o, err)
		}
		ip[net.IPv4len-len(octets)+i] = byte(b)
	}
	return ip, nil
}

// subnetOfListener returns the network of the interface the listener is bound to.
func subnetOfListener(l net.Listener) (net.IPNet, error) {
	tcpAddr, ok := l.Addr().(*net.TCPAddr)
	if !ok {
		return net.IPNet{}, fmt.Errorf("listener is not TCP")
	}
	ip := tcpAddr.IP
	if ip == nil || ip.IsUnspecified() {
		return net.IPNet{}, fmt.Errorf("listener has unspecified IP %v", ip)
	}
	ifaces, err := net.Interfaces()
	if err != nil {
		return net.IPNet{}, err
	}
	for _, ifi := range ifaces {
		addrs, _ := ifi.Addrs()
		for _, a := range addrs {
			var ipnet *net.IPNet
			switch v := a.(type) {
			case *net.IPNet:
				ipnet = v
			case *net.IPAddr:
				ipnet = &net.IPNet{IP: v.IP, Mask: v.IP.DefaultMask()}
			default:
				continue
			}
			if ipnet.Contains(ip) {
				return *ipnet, nil
			}
		}
	}
	return net.IPNet{}, fmt.Errorf("no interface found for ip %v", ip)
}

// splitHostPort splits addr, appending defaultPort when it has none.
func splitHostPort(addr string, defaultPort int) (string, string, error) {
	host, port, err := net.SplitHostPort(addr)
	if err == nil {
		return host, port, nil
	}
	return net.SplitHostPort(addr + ":" + strconv.Itoa(defaultPort))
}

// localIP returns the IP the listener is bound to, or loopback for a wildcard bind.
func localIP(l net.Listener) net.IP {
	if tcpAddr, ok := l.Addr().(*net.TCPAddr); ok && !tcpAddr.IP.IsUnspecified() {
		return tcpAddr.IP
	}
	return net.IPv4(127, 0, 0, 1)
}

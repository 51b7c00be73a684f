package main

import (
	"net"
	"testing"
)

func TestGuessIPAddress(t *testing.T) {
	base := net.IP{192, 168, 0, 1}
	tests := []struct {
		partial  string
		expected net.IP
	}{
		{"42", net.IP{192, 168, 0, 42}},
		{"15.42", net.IP{192, 168, 15, 42}},
		{"10.100.15.42", net.IP{10, 100, 15, 42}},
		{"", base},
	}
	for _, tt := range tests {
		actual, err := guessIPAddress(base, tt.partial)
		if err != nil {
			t.Fatal(err)
		}
		if !actual.Equal(tt.expected) {
			t.Fatalf("%q: expected %v, actual %v", tt.partial, tt.expected, actual)
		}
	}
}

func TestGuessIPAddressRejects(t *testing.T) {
	base := net.IP{192, 168, 0, 1}
	for _, partial := range []string{"256", "1.2.3.4.5", "a.b"} {
		if _, err := guessIPAddress(base, partial); err == nil {
			t.Fatalf("%q: expected an error", partial)
		}
	}
	if _, err := guessIPAddress(net.ParseIP("::1"), "42"); err == nil {
		t.Fatal("expected an error for an IPv6 base")
	}
}

func TestResolveAddress(t *testing.T) {
	local := net.IP{10, 0, 0, 7}
	tests := map[string]string{
		"42":             "10.0.0.42:7070",
		"42:9000":        "10.0.0.42:9000",
		"1.2.3.4":        "1.2.3.4:7070",
		"localhost:8000": "localhost:8000",
		"table.lan":      "table.lan:7070",
	}
	for addr, expected := range tests {
		actual, err := resolveAddress(local, addr, 7070)
		if err != nil {
			t.Fatalf("%q: %v", addr, err)
		}
		if actual != expected {
			t.Fatalf("%q: expected %s, actual %s", addr, expected, actual)
		}
	}
}

func TestSubnetOfListener(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()

	ipnet, err := subnetOfListener(l)
	if err != nil {
		t.Fatalf("subnetOfListener error: %v", err)
	}
	t.Logf("listener local addr: %v, subnet: %s", l.Addr(), ipnet.String())

	if !ipnet.Contains(net.ParseIP("127.0.0.1")) {
		t.Fatalf("expected subnet %s to contain 127.0.0.1", ipnet.String())
	}
	if !localIP(l).Equal(net.IPv4(127, 0, 0, 1)) {
		t.Fatalf("unexpected local ip %v", localIP(l))
	}
}

func netListen(t *testing.T) (net.Listener, error) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err == nil {
		t.Cleanup(func() { l.Close() })
	}
	return l, err
}

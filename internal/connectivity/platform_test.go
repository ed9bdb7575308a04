package connectivity

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterfaceChecker_Connected(t *testing.T) {
	addr := []net.Addr{&net.IPNet{IP: net.ParseIP("192.168.1.10"), Mask: net.CIDRMask(24, 32)}}

	tests := []struct {
		name   string
		ifaces []net.Interface
		addrs  map[string][]net.Addr
		err    error
		want   bool
	}{
		{
			name:   "up interface with address",
			ifaces: []net.Interface{{Name: "eth0", Flags: net.FlagUp}},
			addrs:  map[string][]net.Addr{"eth0": addr},
			want:   true,
		},
		{
			name:   "loopback only",
			ifaces: []net.Interface{{Name: "lo", Flags: net.FlagUp | net.FlagLoopback}},
			addrs:  map[string][]net.Addr{"lo": addr},
			want:   false,
		},
		{
			name:   "down interface",
			ifaces: []net.Interface{{Name: "eth0"}},
			addrs:  map[string][]net.Addr{"eth0": addr},
			want:   false,
		},
		{
			name:   "up interface without address",
			ifaces: []net.Interface{{Name: "wlan0", Flags: net.FlagUp}},
			want:   false,
		},
		{
			name: "listing fails",
			err:  errors.New("boom"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &InterfaceChecker{
				list: func() ([]net.Interface, error) { return tt.ifaces, tt.err },
				addrs: func(iface net.Interface) ([]net.Addr, error) {
					return tt.addrs[iface.Name], nil
				},
			}
			assert.Equal(t, tt.want, c.Connected(context.Background()))
		})
	}
}

func TestInterfaceChecker_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, NewInterfaceChecker().Connected(ctx))
}

func TestPlatformCheckerFunc(t *testing.T) {
	var f PlatformChecker = PlatformCheckerFunc(func(context.Context) bool { return true })
	assert.True(t, f.Connected(context.Background()))
}

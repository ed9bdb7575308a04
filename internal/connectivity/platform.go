package connectivity

import (
	"context"
	"net"
)

// interfaceLister is swapped in tests.
type interfaceLister func() ([]net.Interface, error)

// InterfaceChecker reports connected when at least one network interface is
// up, is not a loopback and carries an address.
type InterfaceChecker struct {
	list  interfaceLister
	addrs func(net.Interface) ([]net.Addr, error)
}

// NewInterfaceChecker returns a checker backed by net.Interfaces.
func NewInterfaceChecker() *InterfaceChecker {
	return &InterfaceChecker{
		list: net.Interfaces,
		addrs: func(iface net.Interface) ([]net.Addr, error) {
			return iface.Addrs()
		},
	}
}

func (c *InterfaceChecker) Connected(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}

	ifaces, err := c.list()
	if err != nil {
		return false
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := c.addrs(iface)
		if err != nil {
			continue
		}
		if len(addrs) > 0 {
			return true
		}
	}

	return false
}

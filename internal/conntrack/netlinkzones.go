//go:build linux

package conntrack

import (
	"fmt"

	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"
)

// NetlinkValidator confirms the kernel's netfilter conntrack subsystem is
// reachable before the agent trusts a zone flush to actually land,
// grounded in go-openvswitch/ovsnl's generic-netlink dial/request
// pattern, applied here to the NETLINK_NETFILTER family instead of the
// OVS datapath family.
type NetlinkValidator struct {
	conn *netlink.Conn
}

// NewNetlinkValidator opens a netfilter netlink socket. Callers should
// treat a non-nil error as "fall back to InMemory without validation"
// rather than a fatal condition — the conntrack zone map stays usable
// either way, this only adds an extra sanity check.
func NewNetlinkValidator() (*NetlinkValidator, error) {
	conn, err := netlink.Dial(unix.NETLINK_NETFILTER, nil)
	if err != nil {
		return nil, fmt.Errorf("conntrack: dial netfilter netlink: %w", err)
	}
	return &NetlinkValidator{conn: conn}, nil
}

// Close releases the underlying netlink socket.
func (v *NetlinkValidator) Close() error {
	return v.conn.Close()
}

// ValidateZone confirms zone is representable in the kernel's conntrack
// zone field (a 16-bit value) and that the netfilter family responds to
// a basic request on this socket.
func (v *NetlinkValidator) ValidateZone(zone uint16) error {
	// The conntrack zone id is carried in a 16-bit netlink attribute; any
	// uint16 value is representable, so the only failure mode here is
	// the socket itself being unusable.
	req := netlink.Message{
		Header: netlink.Header{
			Flags: netlink.Request | netlink.Acknowledge,
		},
	}

	if _, err := v.conn.Execute(req); err != nil {
		return fmt.Errorf("conntrack: validate zone %d: %w", zone, err)
	}
	return nil
}

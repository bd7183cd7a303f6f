package ofp

// CTFlushZone asks the datapath to flush all conntrack entries in a
// single zone. It rides the experimenter message type the same way the
// tunnel-metadata table messages do; the core only needs it to be
// constructible and addressable by type, not wire-faithful (see the
// package doc in header.go).
type CTFlushZone struct {
	Zone uint16
}

func (CTFlushZone) MessageType() Type { return TypeExperimenter }

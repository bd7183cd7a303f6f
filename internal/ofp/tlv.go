package ofp

// TLVTableMap is one (class, type, length) -> index mapping in the
// switch's tunnel-metadata option table.
type TLVTableMap struct {
	OptClass uint16
	OptType  uint8
	OptLen   uint8
	Index    uint8
}

// TLVTableSlots is the number of tunnel-metadata slots a datapath exposes.
const TLVTableSlots = 64

// TLVTableRequest asks the switch for its current TLV table mappings.
type TLVTableRequest struct{}

func (TLVTableRequest) MessageType() Type { return TypeExperimenter }

// TLVTableReply reports the switch's current TLV table mappings.
type TLVTableReply struct {
	MaxSpace uint32
	Mappings []TLVTableMap
}

func (TLVTableReply) MessageType() Type { return TypeExperimenter }

// TLVTableModCommand selects whether a TableMod adds or clears mappings.
type TLVTableModCommand uint16

const (
	TLVTableModAdd   TLVTableModCommand = iota
	TLVTableModClear TLVTableModCommand = iota
)

// TLVTableMod installs or clears tunnel-metadata option mappings.
type TLVTableMod struct {
	Command  TLVTableModCommand
	Mappings []TLVTableMap
}

func (TLVTableMod) MessageType() Type { return TypeTableMod }

// TableMod sets per-table configuration. The core does not send it; the
// "delete all" sweep on entering S_CLEAR uses FlowMod, GroupMod and
// MeterMod.
type TableMod struct {
	TableID uint8
}

func (TableMod) MessageType() Type { return TypeTableMod }

// Error codes relevant to the TLV negotiation race in the connection
// state machine: a peer controller may have mapped the same (class,
// type, length) triple, or reused the chosen index, between our request
// and our table-mod.
const (
	ErrCodeAlreadyMapped = "ALREADY_MAPPED"
	ErrCodeDupEntry      = "DUP_ENTRY"
)

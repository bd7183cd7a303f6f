package ofp

// FlowModCommand selects the operation a FlowMod performs on the switch's
// flow table.
type FlowModCommand uint8

const (
	FlowAdd FlowModCommand = iota
	FlowModify
	FlowModifyStrict
	FlowDelete
	FlowDeleteStrict
)

func (c FlowModCommand) String() string {
	switch c {
	case FlowAdd:
		return "ADD"
	case FlowModify:
		return "MODIFY"
	case FlowModifyStrict:
		return "MODIFY_STRICT"
	case FlowDelete:
		return "DELETE"
	case FlowDeleteStrict:
		return "DELETE_STRICT"
	default:
		return "UNKNOWN"
	}
}

// Special port and group numbers used in wildcard FlowMod fields.
const (
	PortAny  uint32 = 0xffffffff
	GroupAny uint32 = 0xffffffff
	NoBuffer uint32 = 0xffffffff
)

// FlowMod adds, modifies, or deletes an entry in the switch's flow table.
type FlowMod struct {
	Cookie     uint64
	CookieMask uint64
	TableID    uint8
	Command    FlowModCommand
	Priority   uint16
	BufferID   uint32
	OutPort    uint32
	OutGroup   uint32
	Match      Match
	Actions    []byte
}

func (FlowMod) MessageType() Type { return TypeFlowMod }

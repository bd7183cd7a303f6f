package ofp

// GroupModCommand selects the operation a GroupMod performs.
type GroupModCommand uint16

const (
	GroupAdd GroupModCommand = iota
	GroupModify
	GroupDelete
)

// GroupType selects the group semantics (all/select/indirect/fast-failover).
type GroupType uint8

const (
	GroupTypeAll GroupType = iota
	GroupTypeSelect
	GroupTypeIndirect
	GroupTypeFF
)

// Bucket is one weighted action list within a GroupMod.
type Bucket struct {
	Weight     uint16
	WatchPort  uint32
	WatchGroup uint32
	Actions    []byte
}

// GroupMod adds, modifies, or deletes an entry in the switch's group table.
type GroupMod struct {
	Command GroupModCommand
	Type    GroupType
	GroupID uint32
	Buckets []Bucket
}

func (GroupMod) MessageType() Type { return TypeGroupMod }

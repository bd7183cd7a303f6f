package ofp

// Hello is sent by both ends immediately after the transport connects.
type Hello struct{}

func (Hello) MessageType() Type { return TypeHello }

// EchoRequest/EchoReply keep the connection alive and measure liveness.
type EchoRequest struct{ Data []byte }

func (EchoRequest) MessageType() Type { return TypeEchoRequest }

type EchoReply struct{ Data []byte }

func (EchoReply) MessageType() Type { return TypeEchoReply }

// BarrierRequest/BarrierReply bound a batch of preceding messages: the
// reply guarantees every earlier message has been fully processed.
type BarrierRequest struct{}

func (BarrierRequest) MessageType() Type { return TypeBarrierRequest }

type BarrierReply struct{}

func (BarrierReply) MessageType() Type { return TypeBarrierReply }

// ErrorType is the high-level category of an Error message.
type ErrorType uint16

const (
	ErrTypeHelloFailed ErrorType = iota
	ErrTypeBadRequest
	ErrTypeFlowModFailed
	ErrTypeGroupModFailed
	ErrTypeMeterModFailed
	ErrTypeTableModFailed
	ErrTypeExperimenter
)

// Error is reported by the switch when it rejects a request. Code is a
// free-form string rather than the numeric OF13 code since only its
// identity (matched against ErrCodeAlreadyMapped / ErrCodeDupEntry) is
// ever inspected by the core.
type Error struct {
	XID  uint32
	Type ErrorType
	Code string
	Data []byte
}

func (Error) MessageType() Type { return TypeError }

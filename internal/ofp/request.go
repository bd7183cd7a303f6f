package ofp

// Envelope pairs a message body with the header fields the transport
// needs to route it: its type and its transaction id. Requests the core
// sends leave XID unset until the transport assigns one; replies carry
// the XID they are answering.
type Envelope struct {
	XID  uint32
	Body Message
}

func (e Envelope) Type() Type {
	if e.Body == nil {
		return TypeHello
	}
	return e.Body.MessageType()
}

// NewEnvelope wraps a message body with no XID assigned; the transport
// fills XID in on send.
func NewEnvelope(body Message) Envelope {
	return Envelope{Body: body}
}

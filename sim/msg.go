package sim

import "encoding/json"

// A Message is the unit of information exchanged between actors. A message
// is addressed to an edge rather than to an actor; the engine delivers it to
// the endpoint of the edge that is not the sender. Messages are values and
// are never modified after they are built.
type Message struct {
	Port Port
	Edge EdgeID
	Data Payload
}

// NewMessage creates a message on port 0.
func NewMessage(edge EdgeID, data Payload) Message {
	return MsgBuilder{}.WithEdge(edge).WithData(data).Build()
}

// Payload returns the data of the message, never nil.
func (m Message) Payload() Payload {
	if m.Data == nil {
		return Blank{}
	}

	return m.Data
}

type messageJSON struct {
	Port Port            `json:"port"`
	Edge EdgeID          `json:"edge"`
	Data json.RawMessage `json:"data"`
}

// MarshalJSON encodes the message with a tagged payload.
func (m Message) MarshalJSON() ([]byte, error) {
	data, err := marshalPayload(m.Data)
	if err != nil {
		return nil, err
	}

	return json.Marshal(messageJSON{Port: m.Port, Edge: m.Edge, Data: data})
}

// UnmarshalJSON decodes a message produced by MarshalJSON.
func (m *Message) UnmarshalJSON(b []byte) error {
	var raw messageJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	data, err := unmarshalPayload(raw.Data)
	if err != nil {
		return err
	}

	m.Port = raw.Port
	m.Edge = raw.Edge
	m.Data = data

	return nil
}

// MsgBuilder can build messages.
type MsgBuilder struct {
	port Port
	edge EdgeID
	data Payload
}

// WithPort sets the port of the message.
func (b MsgBuilder) WithPort(port Port) MsgBuilder {
	b.port = port
	return b
}

// WithEdge sets the edge the message is sent on.
func (b MsgBuilder) WithEdge(edge EdgeID) MsgBuilder {
	b.edge = edge
	return b
}

// WithData sets the payload of the message.
func (b MsgBuilder) WithData(data Payload) MsgBuilder {
	b.data = data
	return b
}

// Build creates the message. A missing payload becomes Blank.
func (b MsgBuilder) Build() Message {
	data := b.data
	if data == nil {
		data = Blank{}
	}

	return Message{
		Port: b.port,
		Edge: b.edge,
		Data: data,
	}
}

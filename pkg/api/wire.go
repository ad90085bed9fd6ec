package api

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Message is a value that can be carried on the protobuf wire format.
type Message interface {
	// AppendWire appends the encoded message to b.
	AppendWire(b []byte) []byte

	// UnmarshalWire resets the message and decodes b into it.
	UnmarshalWire(b []byte) error
}

// Marshal encodes m.
func Marshal(m Message) []byte {
	return m.AppendWire(nil)
}

// Unmarshal decodes b into m.
func Unmarshal(b []byte, m Message) error {
	return m.UnmarshalWire(b)
}

// Proto3 rules: scalar zero values are omitted, repeated elements never are.

func appendUint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	return appendUint(b, num, 1)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBytes(b []byte, num protowire.Number, p []byte) []byte {
	if len(p) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, p)
}

func appendStrings(b []byte, num protowire.Number, ss []string) []byte {
	for _, s := range ss {
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendString(b, s)
	}
	return b
}

func appendMessage(b []byte, num protowire.Number, m Message) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m.AppendWire(nil))
}

// field is one decoded field. Only varint and length-delimited values are
// kept; other wire types are skipped.
type field struct {
	typ protowire.Type
	u   uint64
	b   []byte
}

func (f field) uint64() uint64 {
	if f.typ != protowire.VarintType {
		return 0
	}
	return f.u
}

func (f field) uint32() uint32 {
	return uint32(f.uint64())
}

func (f field) bool() bool {
	return f.uint64() != 0
}

func (f field) string() string {
	return string(f.bytes())
}

func (f field) bytes() []byte {
	if f.typ != protowire.BytesType {
		return nil
	}
	return append([]byte(nil), f.b...)
}

func (f field) message(m Message) error {
	if f.typ != protowire.BytesType {
		return fmt.Errorf("api: field is not a message")
	}
	return m.UnmarshalWire(f.b)
}

// walk calls fn for every field in b in wire order.
func walk(b []byte, fn func(num protowire.Number, f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		f := field{typ: typ}
		switch typ {
		case protowire.VarintType:
			f.u, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.b, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		if err := fn(num, f); err != nil {
			return err
		}
	}
	return nil
}

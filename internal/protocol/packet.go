// Package protocol implements the fixed-length frame codec shared by the
// rubrica client and server.
//
// Every request and response travels as one 113-byte frame. Each field sits
// at a fixed offset with a fixed width; unused bytes stay zero. Both sides
// must agree on the layout byte for byte, so the offsets below are the wire
// contract and must never change.
package protocol

import "github.com/avoront/rubrica/internal/models"

// FrameLength is the exact size in bytes of every frame, both directions.
const FrameLength = 113

// Field offsets inside a frame.
const (
	operationIndex  = 0
	outcomeIndex    = 1
	usernameIndex   = 2
	passwordIndex   = 22
	matchIndexIndex = 42
	nameIndex       = 52
	surnameIndex    = 62
	phoneIndex      = 72
	newNameIndex    = 82
	newSurnameIndex = 92
	newPhoneIndex   = 102
)

// Field widths inside a frame.
const (
	// AuthParamLength is the capacity of the username and password fields.
	AuthParamLength = 20
	// ContactParamLength is the capacity of every contact field and of the
	// decimal match-index field.
	ContactParamLength = 10
)

// Operation codes. One ASCII byte at offset 0.
const (
	OpRead       byte = 'r'
	OpAuth       byte = 'a'
	OpAdd        byte = '+'
	OpDelete     byte = '-'
	OpModify     byte = 'm'
	OpDisconnect byte = 'x'
	// OpInvalid is not a real operation: it marks a frame that failed
	// validation on receipt (comma contamination) or carried an operation
	// code nobody recognizes. It is also echoed in responses to such frames.
	OpInvalid byte = 'e'
)

// Outcome codes. One ASCII byte at offset 1.
const (
	OutcomeServerError        byte = '0'
	OutcomeSuccess            byte = '1'
	OutcomeContactMissing     byte = '2'
	OutcomeCredentialsExpired byte = '3'
	OutcomeAlreadyModified    byte = '4'
	OutcomeAlreadyExists      byte = '5'
	OutcomeInvalidPacket      byte = 'e'
)

// Packet is the decoded form of one frame. The zero value is a fully empty
// packet, matching an all-zero frame.
type Packet struct {
	Operation byte
	Outcome   byte
	Username  string
	Password  string
	// MatchIndex selects the n-th contact matching the filter (1-based).
	// Zero means the field was absent from the frame.
	MatchIndex uint
	Name       string
	Surname    string
	Phone      string
	NewName    string
	NewSurname string
	NewPhone   string
}

// Contact returns the packet's primary contact fields as a model.
func (p Packet) Contact() models.Contact {
	return models.Contact{Name: p.Name, Surname: p.Surname, Phone: p.Phone}
}

// NewContact returns the packet's replacement contact fields as a model.
func (p Packet) NewContact() models.Contact {
	return models.Contact{Name: p.NewName, Surname: p.NewSurname, Phone: p.NewPhone}
}

// SetContact copies a contact into the packet's primary contact fields.
func (p *Packet) SetContact(c models.Contact) {
	p.Name, p.Surname, p.Phone = c.Name, c.Surname, c.Phone
}

// SetNewContact copies a contact into the packet's replacement fields.
func (p *Packet) SetNewContact(c models.Contact) {
	p.NewName, p.NewSurname, p.NewPhone = c.Name, c.Surname, c.Phone
}

// encodableOperation reports whether the encoder will copy the operation
// byte into a frame. Note the list deliberately excludes OpDisconnect and
// OpInvalid: the original wire format never encodes them, so a disconnect
// acknowledgement goes out with a zero operation byte and only its outcome
// set. DisconnectFrame builds the one frame that carries 'x' on the wire.
func encodableOperation(c byte) bool {
	switch c {
	case OpRead, OpAuth, OpAdd, OpDelete, OpModify:
		return true
	}
	return false
}

func validOutcome(c byte) bool {
	switch c {
	case OutcomeServerError, OutcomeSuccess, OutcomeContactMissing,
		OutcomeCredentialsExpired, OutcomeAlreadyModified,
		OutcomeAlreadyExists, OutcomeInvalidPacket:
		return true
	}
	return false
}

// putString copies s into buf[off:off+width]. Strings longer than the field
// are truncated; the rest of the field keeps its zero bytes.
func putString(buf []byte, off, width int, s string) {
	if s == "" {
		return
	}
	if len(s) > width {
		s = s[:width]
	}
	copy(buf[off:off+width], s)
}

// getString extracts the field at buf[off:off+width], stopping at the first
// zero byte.
func getString(buf []byte, off, width int) string {
	field := buf[off : off+width]
	for i, b := range field {
		if b == 0 {
			return string(field[:i])
		}
	}
	return string(field)
}

// Encode serializes the packet into a fresh frame.
//
// The buffer always starts zeroed: a field is written only when it carries a
// value, so absent fields are represented by runs of zero bytes rather than
// stale data. Unrecognized operation or outcome codes are silently dropped
// and their byte stays zero; the peer will treat the frame as invalid.
func Encode(p Packet) []byte {
	buf := make([]byte, FrameLength)

	if encodableOperation(p.Operation) {
		buf[operationIndex] = p.Operation
	}
	if validOutcome(p.Outcome) {
		buf[outcomeIndex] = p.Outcome
	}

	putString(buf, usernameIndex, AuthParamLength, p.Username)
	putString(buf, passwordIndex, AuthParamLength, p.Password)

	if p.MatchIndex > 0 {
		putString(buf, matchIndexIndex, ContactParamLength, formatUint(p.MatchIndex))
	}

	putString(buf, nameIndex, ContactParamLength, p.Name)
	putString(buf, surnameIndex, ContactParamLength, p.Surname)
	putString(buf, phoneIndex, ContactParamLength, p.Phone)
	putString(buf, newNameIndex, ContactParamLength, p.NewName)
	putString(buf, newSurnameIndex, ContactParamLength, p.NewSurname)
	putString(buf, newPhoneIndex, ContactParamLength, p.NewPhone)

	// Offset 112 is the frame terminator and is always zero.
	return buf
}

// DisconnectFrame builds the frame a client sends to end the session: all
// zeros except the operation byte. This bypasses Encode because the encoder
// never emits the disconnect code.
func DisconnectFrame() []byte {
	buf := make([]byte, FrameLength)
	buf[operationIndex] = OpDisconnect
	return buf
}

// Decode parses a frame into a packet. The frame must be exactly
// FrameLength bytes; callers own that guarantee (transport reads are
// full-frame only).
//
// When rejectCommas is set (the server side), any comma byte anywhere in the
// frame marks the whole packet invalid: the storage layer joins records with
// commas, so a comma smuggled through a field would corrupt a stored line.
func Decode(frame []byte, rejectCommas bool) Packet {
	var p Packet

	if rejectCommas {
		for _, b := range frame {
			if b == ',' {
				p.Operation = OpInvalid
				return p
			}
		}
	}

	p.Operation = frame[operationIndex]
	p.Outcome = frame[outcomeIndex]
	p.Username = getString(frame, usernameIndex, AuthParamLength)
	p.Password = getString(frame, passwordIndex, AuthParamLength)
	p.MatchIndex = parseUint(getString(frame, matchIndexIndex, ContactParamLength))
	p.Name = getString(frame, nameIndex, ContactParamLength)
	p.Surname = getString(frame, surnameIndex, ContactParamLength)
	p.Phone = getString(frame, phoneIndex, ContactParamLength)
	p.NewName = getString(frame, newNameIndex, ContactParamLength)
	p.NewSurname = getString(frame, newSurnameIndex, ContactParamLength)
	p.NewPhone = getString(frame, newPhoneIndex, ContactParamLength)
	return p
}

// parseUint reads the leading decimal digits of s, ignoring anything after
// them. No digits means zero. This mirrors atoi semantics on the original
// wire format, where the match-index field is digits followed by padding.
func parseUint(s string) uint {
	var n uint
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + uint(c-'0')
	}
	return n
}

func formatUint(n uint) string {
	if n == 0 {
		return "0"
	}
	var digits [20]byte
	i := len(digits)
	for n > 0 {
		i--
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return string(digits[i:])
}

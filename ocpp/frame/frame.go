// Package frame implements OCPP-J message framing: the JSON-array envelope
// that is identical across OCPP 1.6 and 2.0.1. Payload schemas belong to the
// version packages; this package only knows about Call/CallResult/CallError.
package frame

import (
	"encoding/json"
	"fmt"
)

type MessageType int

const (
	TypeCall       MessageType = 2
	TypeCallResult MessageType = 3
	TypeCallError  MessageType = 4
)

// DefaultMaxBytes bounds a single frame before it is even handed to the
// JSON decoder, per the size limit named in the configuration surface.
const DefaultMaxBytes = 65536

// Frame is the version-agnostic OCPP-J envelope. Exactly one of the
// Call/CallResult/CallError shapes is populated, selected by Type.
type Frame struct {
	Type             MessageType
	UniqueId         string
	Action           string          // Call only
	Payload          json.RawMessage // Call, CallResult
	ErrorCode        string          // CallError only
	ErrorDescription string          // CallError only
	ErrorDetails     json.RawMessage // CallError only
}

func NewCall(uniqueId, action string, payload json.RawMessage) Frame {
	return Frame{Type: TypeCall, UniqueId: uniqueId, Action: action, Payload: payload}
}

func NewCallResult(uniqueId string, payload json.RawMessage) Frame {
	return Frame{Type: TypeCallResult, UniqueId: uniqueId, Payload: payload}
}

func NewCallError(uniqueId, code, description string, details json.RawMessage) Frame {
	if details == nil {
		details = json.RawMessage("{}")
	}
	return Frame{Type: TypeCallError, UniqueId: uniqueId, ErrorCode: code, ErrorDescription: description, ErrorDetails: details}
}

// Decode parses a raw websocket text message into a Frame. It never trusts
// message length beyond maxBytes and never partially decodes past the
// message-type discriminant before validating array shape.
func Decode(data []byte, maxBytes int) (Frame, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if len(data) > maxBytes {
		return Frame{}, fmt.Errorf("%w: frame is %d bytes, limit is %d", ErrDecode, len(data), maxBytes)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Frame{}, fmt.Errorf("%w: %s", ErrDecode, err)
	}
	if len(raw) == 0 {
		return Frame{}, fmt.Errorf("%w: empty message array", ErrDecode)
	}

	var typeId int
	if err := json.Unmarshal(raw[0], &typeId); err != nil {
		return Frame{}, fmt.Errorf("%w: message type is not a number", ErrDecode)
	}

	switch MessageType(typeId) {
	case TypeCall:
		return decodeCall(raw)
	case TypeCallResult:
		return decodeCallResult(raw)
	case TypeCallError:
		return decodeCallError(raw)
	default:
		return Frame{}, fmt.Errorf("%w: unknown message type %d", ErrDecode, typeId)
	}
}

func decodeCall(raw []json.RawMessage) (Frame, error) {
	if len(raw) < 4 {
		return Frame{}, fmt.Errorf("%w: call requires 4 fields, got %d", ErrDecode, len(raw))
	}
	var uniqueId, action string
	if err := json.Unmarshal(raw[1], &uniqueId); err != nil {
		return Frame{}, fmt.Errorf("%w: uniqueId must be a string", ErrDecode)
	}
	if err := json.Unmarshal(raw[2], &action); err != nil {
		return Frame{}, fmt.Errorf("%w: action must be a string", ErrDecode)
	}
	return NewCall(uniqueId, action, raw[3]), nil
}

func decodeCallResult(raw []json.RawMessage) (Frame, error) {
	if len(raw) < 3 {
		return Frame{}, fmt.Errorf("%w: call result requires 3 fields, got %d", ErrDecode, len(raw))
	}
	var uniqueId string
	if err := json.Unmarshal(raw[1], &uniqueId); err != nil {
		return Frame{}, fmt.Errorf("%w: uniqueId must be a string", ErrDecode)
	}
	return NewCallResult(uniqueId, raw[2]), nil
}

func decodeCallError(raw []json.RawMessage) (Frame, error) {
	if len(raw) < 4 {
		return Frame{}, fmt.Errorf("%w: call error requires 4 fields, got %d", ErrDecode, len(raw))
	}
	var uniqueId, code, description string
	if err := json.Unmarshal(raw[1], &uniqueId); err != nil {
		return Frame{}, fmt.Errorf("%w: uniqueId must be a string", ErrDecode)
	}
	_ = json.Unmarshal(raw[2], &code)
	_ = json.Unmarshal(raw[3], &description)
	var details json.RawMessage
	if len(raw) > 4 {
		details = raw[4]
	}
	return NewCallError(uniqueId, code, description, details), nil
}

// ExtractUniqueId makes a best-effort attempt to recover the uniqueId from
// a message that failed to Decode, so the connection layer can still reply
// with a CALLERROR against the right uniqueId instead of dropping the
// socket. It tolerates anything Decode would have rejected: wrong arity,
// a non-array frame, unknown message type. It returns "", false if no
// second array element resembling a uniqueId can be found.
func ExtractUniqueId(data []byte) (string, bool) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || len(raw) < 2 {
		return "", false
	}
	var uniqueId string
	if err := json.Unmarshal(raw[1], &uniqueId); err != nil || uniqueId == "" {
		return "", false
	}
	return uniqueId, true
}

// Encode renders the frame back into its wire array form.
func (f Frame) Encode() ([]byte, error) {
	switch f.Type {
	case TypeCall:
		payload := f.Payload
		if payload == nil {
			payload = json.RawMessage("{}")
		}
		return json.Marshal([]interface{}{int(TypeCall), f.UniqueId, f.Action, payload})
	case TypeCallResult:
		payload := f.Payload
		if payload == nil {
			payload = json.RawMessage("{}")
		}
		return json.Marshal([]interface{}{int(TypeCallResult), f.UniqueId, payload})
	case TypeCallError:
		details := f.ErrorDetails
		if details == nil {
			details = json.RawMessage("{}")
		}
		return json.Marshal([]interface{}{int(TypeCallError), f.UniqueId, f.ErrorCode, f.ErrorDescription, details})
	default:
		return nil, fmt.Errorf("%w: cannot encode frame of unknown type %d", ErrDecode, f.Type)
	}
}

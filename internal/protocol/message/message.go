// Package message encodes the application payloads carried inside frames.
//
// The first payload byte selects the type; the rest is a packed
// little-endian struct. The frame layer never looks at these bytes.
package message

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Type is the payload discriminant.
type Type uint8

const (
	TypeDebugString  Type = 0
	TypeVelocity     Type = 1
	TypeWheelEncoder Type = 2
)

const (
	VelocityLen     = 1 + 2 + 2
	WheelEncoderLen = 1 + 4 + 4
)

var (
	ErrEmpty       = errors.New("message: empty payload")
	ErrUnknownType = errors.New("message: unknown type")
	ErrLength      = errors.New("message: invalid length")
)

func (t Type) String() string {
	switch t {
	case TypeDebugString:
		return "debug_string"
	case TypeVelocity:
		return "velocity"
	case TypeWheelEncoder:
		return "wheel_encoder"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// Message is one decoded payload.
type Message interface {
	Type() Type
}

// Velocity commands both wheel speeds in RPM.
type Velocity struct {
	LeftRPM  int16 `json:"left_rpm"`
	RightRPM int16 `json:"right_rpm"`
}

func (Velocity) Type() Type { return TypeVelocity }

// WheelEncoder reports cumulative encoder counts.
type WheelEncoder struct {
	Left  int32 `json:"left"`
	Right int32 `json:"right"`
}

func (WheelEncoder) Type() Type { return TypeWheelEncoder }

// DebugString carries free-form text from the device.
type DebugString struct {
	Text string `json:"text"`
}

func (DebugString) Type() Type { return TypeDebugString }

func Marshal(m Message) ([]byte, error) {
	switch v := m.(type) {
	case Velocity:
		buf := make([]byte, VelocityLen)
		buf[0] = byte(TypeVelocity)
		binary.LittleEndian.PutUint16(buf[1:3], uint16(v.LeftRPM))
		binary.LittleEndian.PutUint16(buf[3:5], uint16(v.RightRPM))
		return buf, nil
	case WheelEncoder:
		buf := make([]byte, WheelEncoderLen)
		buf[0] = byte(TypeWheelEncoder)
		binary.LittleEndian.PutUint32(buf[1:5], uint32(v.Left))
		binary.LittleEndian.PutUint32(buf[5:9], uint32(v.Right))
		return buf, nil
	case DebugString:
		buf := make([]byte, 0, 1+len(v.Text))
		buf = append(buf, byte(TypeDebugString))
		return append(buf, v.Text...), nil
	case nil:
		return nil, ErrEmpty
	default:
		return nil, fmt.Errorf("message: marshal %T: %w", m, ErrUnknownType)
	}
}

func Unmarshal(payload []byte) (Message, error) {
	if len(payload) == 0 {
		return nil, ErrEmpty
	}
	t := Type(payload[0])
	switch t {
	case TypeVelocity:
		if len(payload) != VelocityLen {
			return nil, fmt.Errorf("message: %s len=%d: %w", t, len(payload), ErrLength)
		}
		return Velocity{
			LeftRPM:  int16(binary.LittleEndian.Uint16(payload[1:3])),
			RightRPM: int16(binary.LittleEndian.Uint16(payload[3:5])),
		}, nil
	case TypeWheelEncoder:
		if len(payload) != WheelEncoderLen {
			return nil, fmt.Errorf("message: %s len=%d: %w", t, len(payload), ErrLength)
		}
		return WheelEncoder{
			Left:  int32(binary.LittleEndian.Uint32(payload[1:5])),
			Right: int32(binary.LittleEndian.Uint32(payload[5:9])),
		}, nil
	case TypeDebugString:
		return DebugString{Text: string(payload[1:])}, nil
	default:
		return nil, fmt.Errorf("message: type %d: %w", uint8(t), ErrUnknownType)
	}
}

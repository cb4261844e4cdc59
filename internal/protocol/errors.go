package protocol

import "errors"

var (
	ErrEscapeTruncated  = errors.New("protocol: escape marker at end of input")
	ErrFrameTooShort    = errors.New("protocol: frame too short")
	ErrChecksumMismatch = errors.New("protocol: checksum mismatch")
	ErrBufferOverflow   = errors.New("protocol: frame buffer overflow")
	ErrMissingEnd       = errors.New("protocol: start received before end")
	ErrInvalidCapacity  = errors.New("protocol: invalid buffer capacity")
	ErrPayloadTooLarge  = errors.New("protocol: payload too large")
	ErrEmptyPayload     = errors.New("protocol: empty payload")
)

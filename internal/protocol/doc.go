// Package protocol owns the serial wire contract.
//
// Ownership boundary:
// - delimiter and escape byte values
// - checksum policy
// - sentinel errors shared by escape/frame/message
//
// Frame layout on the wire:
//
//	Start | escape(payload ++ checksum(payload)) | End
//
// Only Start and End ever appear literally on the wire. Everything between
// them is byte-stuffed by package escape.
package protocol

// Package wire encodes and decodes message payloads.
//
// A payload is one type byte followed by a type-specific body:
//
//	0x01 text   UTF-8 text
//	0x02 image  blob id (16) | size u32 | nonce (24)
//	0x13 video  duration u16 | video blob id (16) | video size u32 |
//	            thumbnail blob id (16) | thumbnail size u32 | key (32)
//	0x17 file   JSON object, see File
//
// Integers are little-endian. Encoding is deterministic; random padding is
// added later by the envelope package.
//
// # Notes
//
// Limits are enforced during encoding so an oversized message fails before
// any network activity: text and captions against MaxTextLength, the whole
// encoded payload against MaxPayloadSize. Both yield domain.ErrPayloadTooLarge.
package wire

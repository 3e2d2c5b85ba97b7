// Package message builds and sends end-to-end encrypted messages.
//
// A Message is a tagged variant (text, image, video or file) borrowing an
// open connection (domain.Session). Send runs the pipeline
//
//	Built -> KeyResolved -> BlobsUploaded -> Encrypted -> Submitted
//
// strictly in order; any failure moves the message to Failed and stops.
// Text messages skip BlobsUploaded. Thumbnails are uploaded before the main
// content so the payload can reference both.
//
// # Notes
//
// Size limits are checked before the first network call: a text or caption
// that is too long fails with domain.ErrPayloadTooLarge without touching the
// gateway. A Message can be sent once; build a new one to resend.
package message

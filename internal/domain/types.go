package domain

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ------------- Blobs -------------

// BlobID is the 16-byte identifier the gateway assigns to an uploaded blob.
type BlobID [16]byte

func (id BlobID) String() string { return hex.EncodeToString(id[:]) }

// ParseBlobID parses the 32 hex characters returned by the gateway.
func ParseBlobID(s string) (BlobID, error) {
	var id BlobID
	s = strings.TrimSpace(s)
	if len(s) != 2*len(id) {
		return id, fmt.Errorf("blob id: want %d hex chars, got %d", 2*len(id), len(s))
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return id, fmt.Errorf("blob id: %w", err)
	}
	return id, nil
}

// BlobReference describes an uploaded, encrypted blob. Key and Nonce are
// carried inside the encrypted message, never alongside the upload.
type BlobReference struct {
	ID    BlobID
	Size  uint32 // encrypted size in bytes
	Key   [32]byte
	Nonce [24]byte
}

// ------------- Rendering -------------

// RenderingType tells the recipient how to display a file message.
type RenderingType int

const (
	RenderingFile    RenderingType = 0
	RenderingMedia   RenderingType = 1
	RenderingSticker RenderingType = 2
)

func (r RenderingType) String() string {
	switch r {
	case RenderingFile:
		return "file"
	case RenderingMedia:
		return "media"
	case RenderingSticker:
		return "sticker"
	}
	return fmt.Sprintf("rendering(%d)", int(r))
}

// ParseRenderingType accepts the names printed by String.
func ParseRenderingType(s string) (RenderingType, error) {
	switch strings.ToLower(s) {
	case "file":
		return RenderingFile, nil
	case "media":
		return RenderingMedia, nil
	case "sticker":
		return RenderingSticker, nil
	}
	return 0, fmt.Errorf("unknown rendering type %q", s)
}

// DetectRendering maps a MIME type onto a rendering type. Images, audio and
// video render as media; everything else as a plain file. Stickers are only
// ever chosen explicitly.
func DetectRendering(mime string) RenderingType {
	major, _, _ := strings.Cut(strings.ToLower(mime), "/")
	switch major {
	case "image", "audio", "video":
		return RenderingMedia
	}
	return RenderingFile
}

// ------------- Envelope -------------

// Envelope is the encrypted unit submitted to the gateway.
type Envelope struct {
	To    Identity
	Nonce [24]byte
	Box   []byte // NaCl box output (ciphertext || tag)
}

// Bytes returns the wire layout nonce || box.
func (e Envelope) Bytes() []byte {
	out := make([]byte, 0, len(e.Nonce)+len(e.Box))
	out = append(out, e.Nonce[:]...)
	return append(out, e.Box...)
}

// ------------- Results -------------

// SendResult is returned by a successful send.
type SendResult struct {
	MessageID string
	BlobIDs   []BlobID // in upload order
	TraceID   string
}

// Capabilities lists what a recipient's client can receive.
type Capabilities []string

// Has reports whether c contains capability name.
func (c Capabilities) Has(name string) bool {
	for _, v := range c {
		if strings.EqualFold(v, name) {
			return true
		}
	}
	return false
}

// Capability names reported by the gateway.
const (
	CapabilityText  = "text"
	CapabilityImage = "image"
	CapabilityVideo = "video"
	CapabilityAudio = "audio"
	CapabilityFile  = "file"
)

package message

import "fmt"

// State is the position of a message in the send pipeline.
type State int32

const (
	StateBuilt State = iota
	StateKeyResolved
	StateBlobsUploaded
	StateEncrypted
	StateSubmitted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateBuilt:
		return "built"
	case StateKeyResolved:
		return "key_resolved"
	case StateBlobsUploaded:
		return "blobs_uploaded"
	case StateEncrypted:
		return "encrypted"
	case StateSubmitted:
		return "submitted"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Kind tags the message variant.
type Kind int

const (
	KindText Kind = iota + 1
	KindImage
	KindVideo
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	case KindFile:
		return "file"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// capability a recipient needs to receive k.
func (k Kind) capability() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	case KindFile:
		return "file"
	}
	return "text"
}

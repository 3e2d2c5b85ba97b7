package wire

import "e2egateway/internal/domain"

// Type is the leading payload byte.
type Type byte

const (
	TypeText  Type = 0x01
	TypeImage Type = 0x02
	TypeVideo Type = 0x13
	TypeFile  Type = 0x17
)

// Payload is one of Text, Image, Video or File.
type Payload interface {
	Type() Type
}

type Text struct {
	Body string
}

// Image is the legacy image layout. The blob was sealed with NaCl box for
// the recipient under Nonce.
type Image struct {
	Blob  domain.BlobID
	Size  uint32
	Nonce [24]byte
}

type Video struct {
	Duration      uint16 // seconds
	Video         domain.BlobID
	VideoSize     uint32
	Thumbnail     domain.BlobID
	ThumbnailSize uint32
	Key           [32]byte // shared by video and thumbnail blobs
}

type File struct {
	Blob          domain.BlobID
	Thumbnail     *domain.BlobID // nil when no thumbnail was uploaded
	ThumbnailMIME string
	Key           [32]byte
	MIME          string
	Name          string
	Size          uint32
	Rendering     domain.RenderingType
	Caption       string
}

func (Text) Type() Type  { return TypeText }
func (Image) Type() Type { return TypeImage }
func (Video) Type() Type { return TypeVideo }
func (File) Type() Type  { return TypeFile }

var (
	_ Payload = Text{}
	_ Payload = Image{}
	_ Payload = Video{}
	_ Payload = File{}
)

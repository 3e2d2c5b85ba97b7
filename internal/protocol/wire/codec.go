package wire

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"e2egateway/internal/domain"
)

const (
	DefaultMaxTextLength  = 3500
	DefaultMaxPayloadSize = 7000

	imageBodyLen = 16 + 4 + 24
	videoBodyLen = 2 + 16 + 4 + 32 + 16 + 4
)

// ErrMalformed is returned by Decode for bodies that do not parse.
var ErrMalformed = errors.New("wire: malformed payload")

// Limits bounds encoded payloads. Zero fields fall back to the defaults.
type Limits struct {
	MaxTextLength  int
	MaxPayloadSize int
}

// DefaultLimits are the gateway's documented bounds.
var DefaultLimits = Limits{MaxTextLength: DefaultMaxTextLength, MaxPayloadSize: DefaultMaxPayloadSize}

func (l Limits) normalize() Limits {
	if l.MaxTextLength <= 0 {
		l.MaxTextLength = DefaultMaxTextLength
	}
	if l.MaxPayloadSize <= 0 {
		l.MaxPayloadSize = DefaultMaxPayloadSize
	}
	return l
}

// CheckText fails with domain.ErrPayloadTooLarge when s exceeds the text limit.
func (l Limits) CheckText(what, s string) error {
	l = l.normalize()
	if len(s) > l.MaxTextLength {
		return domain.E(domain.ErrPayloadTooLarge, "encode",
			fmt.Errorf("%s is %d bytes, limit %d", what, len(s), l.MaxTextLength))
	}
	return nil
}

// Encode serialises p.
func (l Limits) Encode(p Payload) ([]byte, error) {
	l = l.normalize()
	var (
		out []byte
		err error
	)
	switch p := p.(type) {
	case Text:
		out, err = l.encodeText(p)
	case Image:
		out = encodeImage(p)
	case Video:
		out = encodeVideo(p)
	case File:
		out, err = l.encodeFile(p)
	case nil:
		return nil, domain.E(domain.ErrInvalidMessage, "encode", errors.New("nil payload"))
	default:
		return nil, domain.E(domain.ErrInvalidMessage, "encode", fmt.Errorf("unsupported payload %T", p))
	}
	if err != nil {
		return nil, err
	}
	if len(out) > l.MaxPayloadSize {
		return nil, domain.E(domain.ErrPayloadTooLarge, "encode",
			fmt.Errorf("payload is %d bytes, limit %d", len(out), l.MaxPayloadSize))
	}
	return out, nil
}

func (l Limits) encodeText(p Text) ([]byte, error) {
	if p.Body == "" {
		return nil, domain.E(domain.ErrInvalidMessage, "encode", errors.New("empty text"))
	}
	if !utf8.ValidString(p.Body) {
		return nil, domain.E(domain.ErrInvalidMessage, "encode", errors.New("text is not valid UTF-8"))
	}
	if err := l.CheckText("text", p.Body); err != nil {
		return nil, err
	}
	out := make([]byte, 0, 1+len(p.Body))
	out = append(out, byte(TypeText))
	return append(out, p.Body...), nil
}

func encodeImage(p Image) []byte {
	out := make([]byte, 0, 1+imageBodyLen)
	out = append(out, byte(TypeImage))
	out = append(out, p.Blob[:]...)
	out = binary.LittleEndian.AppendUint32(out, p.Size)
	return append(out, p.Nonce[:]...)
}

func encodeVideo(p Video) []byte {
	out := make([]byte, 0, 1+videoBodyLen)
	out = append(out, byte(TypeVideo))
	out = binary.LittleEndian.AppendUint16(out, p.Duration)
	out = append(out, p.Video[:]...)
	out = binary.LittleEndian.AppendUint32(out, p.VideoSize)
	out = append(out, p.Thumbnail[:]...)
	out = binary.LittleEndian.AppendUint32(out, p.ThumbnailSize)
	return append(out, p.Key[:]...)
}

// fileJSON is the body of a file message. Keys are single letters to keep the
// payload small.
type fileJSON struct {
	Blob          string `json:"b"`
	Thumbnail     string `json:"t,omitempty"`
	ThumbnailMIME string `json:"p,omitempty"`
	Key           string `json:"k"`
	MIME          string `json:"m"`
	Name          string `json:"n"`
	Size          uint32 `json:"s"`
	Legacy        int    `json:"i"` // 1 if rendered as media, for old clients
	Rendering     *int   `json:"j,omitempty"`
	Caption       string `json:"d,omitempty"`
}

func (l Limits) encodeFile(p File) ([]byte, error) {
	if p.Caption != "" {
		if err := l.CheckText("caption", p.Caption); err != nil {
			return nil, err
		}
	}
	if p.Rendering < domain.RenderingFile || p.Rendering > domain.RenderingSticker {
		return nil, domain.E(domain.ErrInvalidMessage, "encode", fmt.Errorf("invalid %s", p.Rendering))
	}
	r := int(p.Rendering)
	body := fileJSON{
		Blob:      hex.EncodeToString(p.Blob[:]),
		Key:       hex.EncodeToString(p.Key[:]),
		MIME:      p.MIME,
		Name:      p.Name,
		Size:      p.Size,
		Rendering: &r,
		Caption:   p.Caption,
	}
	if p.Rendering != domain.RenderingFile {
		body.Legacy = 1
	}
	if p.Thumbnail != nil {
		body.Thumbnail = hex.EncodeToString(p.Thumbnail[:])
		body.ThumbnailMIME = p.ThumbnailMIME
	}
	js, err := json.Marshal(body)
	if err != nil {
		return nil, domain.E(domain.ErrInvalidMessage, "encode", err)
	}
	return append([]byte{byte(TypeFile)}, js...), nil
}

// Decode parses an encoded payload (without padding).
func Decode(b []byte) (Payload, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrMalformed)
	}
	body := b[1:]
	switch Type(b[0]) {
	case TypeText:
		if len(body) == 0 || !utf8.Valid(body) {
			return nil, fmt.Errorf("%w: bad text", ErrMalformed)
		}
		return Text{Body: string(body)}, nil
	case TypeImage:
		if len(body) != imageBodyLen {
			return nil, fmt.Errorf("%w: image body is %d bytes", ErrMalformed, len(body))
		}
		var p Image
		copy(p.Blob[:], body[:16])
		p.Size = binary.LittleEndian.Uint32(body[16:20])
		copy(p.Nonce[:], body[20:])
		return p, nil
	case TypeVideo:
		if len(body) != videoBodyLen {
			return nil, fmt.Errorf("%w: video body is %d bytes", ErrMalformed, len(body))
		}
		var p Video
		p.Duration = binary.LittleEndian.Uint16(body[0:2])
		copy(p.Video[:], body[2:18])
		p.VideoSize = binary.LittleEndian.Uint32(body[18:22])
		copy(p.Thumbnail[:], body[22:38])
		p.ThumbnailSize = binary.LittleEndian.Uint32(body[38:42])
		copy(p.Key[:], body[42:74])
		return p, nil
	case TypeFile:
		return decodeFile(body)
	}
	return nil, fmt.Errorf("%w: unknown type 0x%02x", ErrMalformed, b[0])
}

func decodeFile(body []byte) (Payload, error) {
	var js fileJSON
	if err := json.Unmarshal(body, &js); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var p File
	var err error
	if p.Blob, err = domain.ParseBlobID(js.Blob); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if js.Thumbnail != "" {
		id, err := domain.ParseBlobID(js.Thumbnail)
		if err != nil {
			return nil, fmt.Errorf("%w: thumbnail %v", ErrMalformed, err)
		}
		p.Thumbnail = &id
		p.ThumbnailMIME = js.ThumbnailMIME
	}
	if len(js.Key) != 2*len(p.Key) {
		return nil, fmt.Errorf("%w: key length", ErrMalformed)
	}
	if _, err := hex.Decode(p.Key[:], []byte(js.Key)); err != nil {
		return nil, fmt.Errorf("%w: key %v", ErrMalformed, err)
	}
	p.MIME, p.Name, p.Size, p.Caption = js.MIME, js.Name, js.Size, js.Caption
	switch {
	case js.Rendering != nil:
		p.Rendering = domain.RenderingType(*js.Rendering)
	case js.Legacy == 1:
		p.Rendering = domain.RenderingMedia
	}
	return p, nil
}

package message

import (
	"errors"
	"math"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"e2egateway/internal/crypto"
	"e2egateway/internal/domain"
)

// Message is one outgoing message. Build it with NewText, NewImage, NewVideo
// or NewFile and send it with Send.
type Message struct {
	sess domain.Session
	kind Kind
	to   domain.Identity
	hint domain.KeyHint

	text string

	content       []byte
	name          string
	mime          string
	thumbnail     []byte
	thumbnailMIME string
	caption       string
	duration      uint16 // seconds
	rendering     *domain.RenderingType

	err     error // first option error, reported by Send
	state   atomic.Int32
	started atomic.Bool
}

// Option customises a Message.
type Option func(*Message)

// WithKey supplies the recipient's public key, skipping any lookup.
func WithKey(pk domain.PublicKey) Option {
	return func(m *Message) { m.hint = domain.LiteralKey(pk) }
}

// WithKeyString is WithKey for the "public:<hex>" form.
func WithKeyString(s string) Option {
	return func(m *Message) {
		pk, err := crypto.DecodePublicKey(s)
		if err != nil {
			m.fail(err)
			return
		}
		m.hint = domain.LiteralKey(pk)
	}
}

// WithKeyFile reads the recipient's public key from a key file.
func WithKeyFile(path string) Option {
	return func(m *Message) { m.hint = domain.KeyFile(path) }
}

// WithCaption sets the caption of a file message.
func WithCaption(caption string) Option {
	return func(m *Message) { m.caption = caption }
}

// WithThumbnail attaches a thumbnail to a file message. Its MIME type is
// detected from the content.
func WithThumbnail(data []byte) Option {
	return func(m *Message) { m.thumbnail = data }
}

// WithThumbnailFile reads a thumbnail from path.
func WithThumbnailFile(path string) Option {
	return func(m *Message) {
		b, err := os.ReadFile(path)
		if err != nil {
			m.fail(err)
			return
		}
		m.thumbnail = b
	}
}

// WithMIME overrides MIME detection for the main content.
func WithMIME(mime string) Option {
	return func(m *Message) { m.mime = mime }
}

// WithRendering overrides rendering type detection of a file message.
func WithRendering(r domain.RenderingType) Option {
	return func(m *Message) { m.rendering = &r }
}

func newMessage(sess domain.Session, kind Kind, to domain.Identity, opts []Option) *Message {
	m := &Message{sess: sess, kind: kind, to: to}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Message) fail(err error) {
	if m.err == nil {
		m.err = err
	}
}

// NewText builds a text message.
func NewText(sess domain.Session, to domain.Identity, text string, opts ...Option) *Message {
	m := newMessage(sess, KindText, to, opts)
	m.text = text
	return m
}

// NewImage builds a legacy image message. New code should prefer NewFile,
// which renders images as media.
func NewImage(sess domain.Session, to domain.Identity, image []byte, opts ...Option) *Message {
	m := newMessage(sess, KindImage, to, opts)
	m.content = image
	return m
}

// NewVideo builds a video message. The duration is rounded to whole seconds.
func NewVideo(sess domain.Session, to domain.Identity, video, thumbnail []byte, duration time.Duration, opts ...Option) *Message {
	m := newMessage(sess, KindVideo, to, opts)
	m.content = video
	if thumbnail != nil {
		m.thumbnail = thumbnail
	}
	secs := duration.Round(time.Second) / time.Second
	if secs < 0 {
		m.fail(errors.New("negative duration"))
		secs = 0
	}
	m.duration = uint16(min(int64(secs), math.MaxUint16))
	return m
}

// NewFile builds a file message. Without WithRendering the rendering type is
// derived from the MIME type.
func NewFile(sess domain.Session, to domain.Identity, content []byte, name string, opts ...Option) *Message {
	m := newMessage(sess, KindFile, to, opts)
	m.content = content
	m.name = name
	return m
}

// NewImageFromFile reads path and builds a legacy image message.
func NewImageFromFile(sess domain.Session, to domain.Identity, path string, opts ...Option) (*Message, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewImage(sess, to, b, opts...), nil
}

// NewVideoFromFiles reads the video and thumbnail files and builds a video message.
func NewVideoFromFiles(sess domain.Session, to domain.Identity, videoPath, thumbnailPath string, duration time.Duration, opts ...Option) (*Message, error) {
	video, err := os.ReadFile(videoPath)
	if err != nil {
		return nil, err
	}
	thumb, err := os.ReadFile(thumbnailPath)
	if err != nil {
		return nil, err
	}
	return NewVideo(sess, to, video, thumb, duration, opts...), nil
}

// NewFileFromPath reads path and builds a file message named after it.
func NewFileFromPath(sess domain.Session, to domain.Identity, path string, opts ...Option) (*Message, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewFile(sess, to, b, filepath.Base(path), opts...), nil
}

// Kind returns the variant of m.
func (m *Message) Kind() Kind { return m.kind }

// To returns the recipient.
func (m *Message) To() domain.Identity { return m.to }

// State returns where m is in the send pipeline.
func (m *Message) State() State { return State(m.state.Load()) }

// MIME returns the MIME type that will be sent for the main content.
func (m *Message) MIME() string {
	if m.mime != "" {
		return m.mime
	}
	return detectMIME(m.content, m.name)
}

// Rendering returns the rendering type a file message will be sent with.
func (m *Message) Rendering() domain.RenderingType {
	if m.rendering != nil {
		return *m.rendering
	}
	return domain.DetectRendering(m.MIME())
}

// detectMIME sniffs content, falling back to the file extension.
func detectMIME(content []byte, name string) string {
	t := mimetype.Detect(content)
	s, _, _ := strings.Cut(t.String(), ";")
	if (s == "" || s == "application/octet-stream" || s == "text/plain") && name != "" {
		if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
			s, _, _ = strings.Cut(byExt, ";")
		}
	}
	if s == "" {
		s = "application/octet-stream"
	}
	return strings.TrimSpace(s)
}

package message

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"e2egateway/internal/crypto"
	"e2egateway/internal/domain"
	"e2egateway/internal/protocol/envelope"
	"e2egateway/internal/protocol/wire"
	"e2egateway/internal/services/blob"
	"e2egateway/internal/util/validate"
)

// Send delivers m to the gateway. The returned result carries the trace id
// even on failure.
func (m *Message) Send(ctx context.Context) (domain.SendResult, error) {
	res := domain.SendResult{TraceID: uuid.NewString()}
	if !m.started.CompareAndSwap(false, true) {
		return res, domain.E(domain.ErrInvalidMessage, "send", errors.New("message already sent")).WithID(m.to)
	}
	log := m.sess.Logger().With(
		zap.String("trace", res.TraceID),
		zap.Stringer("kind", m.kind),
		zap.String("to", string(m.to)))

	blobIDs, msgID, err := m.run(ctx, log)
	res.BlobIDs = blobIDs
	if err != nil {
		m.advance(log, StateFailed)
		log.Warn("send failed", zap.Error(err))
		return res, err
	}
	res.MessageID = msgID
	log.Info("message sent", zap.String("message_id", msgID), zap.Int("blobs", len(blobIDs)))
	return res, nil
}

func (m *Message) run(ctx context.Context, log *zap.Logger) ([]domain.BlobID, string, error) {
	if m.sess.Closed() {
		return nil, "", domain.E(domain.ErrTransport, "send", domain.ErrClosed)
	}
	if err := m.validate(); err != nil {
		return nil, "", err
	}

	lim := m.sess.Limits()
	limits := wire.Limits{MaxTextLength: lim.MaxTextLength, MaxPayloadSize: lim.MaxPayloadSize}

	// Encoding the payload with placeholder blob references sizes it exactly,
	// so an oversized message never reaches the network.
	if _, err := limits.Encode(m.payload(m.placeholder())); err != nil {
		return nil, "", withID(err, m.to)
	}
	if lim.MaxBlobSize > 0 {
		for _, b := range [][]byte{m.thumbnail, m.content} {
			if n := int64(len(b)) + crypto.Overhead; len(b) > 0 && n > lim.MaxBlobSize {
				return nil, "", domain.E(domain.ErrBlobTooLarge, "upload",
					fmt.Errorf("blob is %d bytes sealed, limit %d", n, lim.MaxBlobSize)).WithID(m.to)
			}
		}
	}

	if m.sess.CheckCapabilities() {
		if err := m.checkCapabilities(ctx); err != nil {
			return nil, "", err
		}
	}

	pk, err := m.sess.Keys().Resolve(ctx, m.to, m.hint)
	if err != nil {
		return nil, "", err
	}
	m.advance(log, StateKeyResolved)

	priv := m.sess.PrivateKey()
	defer crypto.Wipe(priv[:])

	var (
		a       attachments
		blobIDs []domain.BlobID
	)
	if m.kind != KindText {
		a, err = m.upload(ctx, pk, priv)
		if err != nil {
			return blobIDs, "", err
		}
		defer crypto.Wipe(a.key[:])
		blobIDs = a.ids()
		m.advance(log, StateBlobsUploaded)
	}
	payload, err := limits.Encode(m.payload(a))
	if err != nil {
		return blobIDs, "", withID(err, m.to)
	}

	env, err := envelope.Seal(m.to, payload, pk, priv)
	if err != nil {
		return blobIDs, "", err
	}
	m.advance(log, StateEncrypted)

	id, err := m.sess.Gateway().SendE2E(ctx, env)
	if err != nil {
		return blobIDs, "", err
	}
	m.advance(log, StateSubmitted)
	return blobIDs, id, nil
}

// attachments are the uploaded blobs of one message.
type attachments struct {
	content   domain.BlobReference
	thumbnail *domain.BlobReference
	key       [32]byte
}

func (a attachments) ids() []domain.BlobID {
	var ids []domain.BlobID
	if a.thumbnail != nil {
		ids = append(ids, a.thumbnail.ID)
	}
	return append(ids, a.content.ID)
}

// upload stores the thumbnail, then the content.
func (m *Message) upload(ctx context.Context, pk domain.PublicKey, priv domain.PrivateKey) (attachments, error) {
	var a attachments
	blobs := m.sess.Blobs()

	if m.kind == KindImage {
		ref, err := blobs.UploadForPeer(ctx, m.content, pk, priv)
		if err != nil {
			return a, withID(err, m.to)
		}
		a.content = ref
		return a, nil
	}

	key, err := crypto.NewSecretKey(rand.Reader)
	if err != nil {
		return a, domain.E(domain.ErrEncryptionFailed, "blob key", err).WithID(m.to)
	}
	a.key = key
	if len(m.thumbnail) > 0 {
		ref, err := blobs.Upload(ctx, m.thumbnail, key, blob.ThumbnailNonce)
		if err != nil {
			return a, withID(err, m.to)
		}
		a.thumbnail = &ref
	}
	ref, err := blobs.Upload(ctx, m.content, key, blob.FileNonce)
	if err != nil {
		return a, withID(err, m.to)
	}
	a.content = ref
	return a, nil
}

// payload builds the wire payload referencing a. Called with placeholder
// attachments it has the exact size of the final payload, since ids and keys
// are fixed-length.
func (m *Message) payload(a attachments) wire.Payload {
	switch m.kind {
	case KindText:
		return wire.Text{Body: m.text}
	case KindImage:
		return wire.Image{Blob: a.content.ID, Size: a.content.Size, Nonce: a.content.Nonce}
	case KindVideo:
		v := wire.Video{
			Duration:  m.duration,
			Video:     a.content.ID,
			VideoSize: a.content.Size,
			Key:       a.key,
		}
		if a.thumbnail != nil {
			v.Thumbnail, v.ThumbnailSize = a.thumbnail.ID, a.thumbnail.Size
		}
		return v
	}
	f := wire.File{
		Blob:      a.content.ID,
		Key:       a.key,
		MIME:      m.MIME(),
		Name:      m.name,
		Size:      uint32(len(m.content)),
		Rendering: m.Rendering(),
		Caption:   m.caption,
	}
	if a.thumbnail != nil {
		f.Thumbnail = &a.thumbnail.ID
		f.ThumbnailMIME = detectMIME(m.thumbnail, "")
	}
	return f
}

func (m *Message) placeholder() attachments {
	a := attachments{}
	if len(m.thumbnail) > 0 {
		a.thumbnail = &domain.BlobReference{}
	}
	return a
}

func (m *Message) checkCapabilities(ctx context.Context) error {
	caps, err := m.sess.Gateway().Capabilities(ctx, m.to)
	if err != nil {
		return err
	}
	if want := m.kind.capability(); !caps.Has(want) {
		return domain.E(domain.ErrSubmissionFailed, "capabilities",
			fmt.Errorf("recipient cannot receive %s messages", want)).WithID(m.to)
	}
	return nil
}

func (m *Message) validate() error {
	bad := func(format string, args ...any) error {
		return domain.E(domain.ErrInvalidMessage, "validate", fmt.Errorf(format, args...)).WithID(m.to)
	}
	if m.err != nil {
		return domain.E(domain.ErrInvalidMessage, "validate", m.err).WithID(m.to)
	}
	if err := validate.Var(string(m.to), "required,identity"); err != nil {
		return bad("recipient %q is not a valid identity", m.to)
	}
	switch m.kind {
	case KindText:
		if m.text == "" {
			return bad("empty text")
		}
	case KindImage, KindFile:
		if len(m.content) == 0 {
			return bad("empty %s", m.kind)
		}
	case KindVideo:
		if len(m.content) == 0 || len(m.thumbnail) == 0 {
			return bad("video messages need both video and thumbnail")
		}
	default:
		return bad("unknown message kind %v", m.kind)
	}
	if m.kind == KindFile && m.name == "" {
		return bad("file name required")
	}
	if m.rendering != nil && (*m.rendering < domain.RenderingFile || *m.rendering > domain.RenderingSticker) {
		return bad("invalid %s", *m.rendering)
	}
	return nil
}

func (m *Message) advance(log *zap.Logger, to State) {
	from := State(m.state.Swap(int32(to)))
	log.Debug("state", zap.Stringer("from", from), zap.Stringer("to", to))
}

// withID annotates a domain error with the recipient when it has none.
func withID(err error, id domain.Identity) error {
	var e *domain.Error
	if errors.As(err, &e) && e.ID == "" {
		e.ID = id
	}
	return err
}

package wire_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"e2egateway/internal/domain"
	"e2egateway/internal/protocol/wire"
)

func blobID(b byte) domain.BlobID {
	var id domain.BlobID
	for i := range id {
		id[i] = b
	}
	return id
}

func mustEncode(t *testing.T, p wire.Payload) []byte {
	t.Helper()
	b, err := wire.DefaultLimits.Encode(p)
	if err != nil {
		t.Fatalf("encode %T: %v", p, err)
	}
	return b
}

func TestEncodeDecode_Bijection(t *testing.T) {
	thumb := blobID(0xbb)
	payloads := []wire.Payload{
		wire.Text{Body: "私はガラスを食べられます。"},
		wire.Image{Blob: blobID(0xaa), Size: 12345, Nonce: [24]byte{1, 2, 3}},
		wire.Video{Duration: 61, Video: blobID(1), VideoSize: 1 << 20, Key: [32]byte{9}, Thumbnail: blobID(2), ThumbnailSize: 4096},
		wire.File{
			Blob: blobID(3), Thumbnail: &thumb, ThumbnailMIME: "image/png", Key: [32]byte{7},
			MIME: "application/zip", Name: "some_file.zip", Size: 999,
			Rendering: domain.RenderingFile, Caption: "Here's that file I mentioned",
		},
		wire.File{Blob: blobID(4), MIME: "image/png", Name: "sticker.png", Size: 10, Rendering: domain.RenderingSticker},
	}
	for _, p := range payloads {
		b := mustEncode(t, p)
		if b[0] != byte(p.Type()) {
			t.Fatalf("%T: type byte 0x%02x", p, b[0])
		}
		got, err := wire.Decode(b)
		if err != nil {
			t.Fatalf("decode %T: %v", p, err)
		}
		if !reflect.DeepEqual(got, p) {
			t.Fatalf("%T round trip:\n got %#v\nwant %#v", p, got, p)
		}
		again := mustEncode(t, got)
		if !bytes.Equal(again, b) {
			t.Fatalf("%T: re-encoding differs", p)
		}
	}
}

func TestEncode_ImageLayout(t *testing.T) {
	b := mustEncode(t, wire.Image{Blob: blobID(0xaa), Size: 0x01020304, Nonce: [24]byte{0xff}})
	if len(b) != 1+16+4+24 {
		t.Fatalf("length %d", len(b))
	}
	if !bytes.Equal(b[17:21], []byte{4, 3, 2, 1}) {
		t.Fatalf("size not little-endian: %x", b[17:21])
	}
	if b[21] != 0xff {
		t.Fatalf("nonce offset: %x", b[21])
	}
}

func TestEncode_VideoLayout(t *testing.T) {
	b := mustEncode(t, wire.Video{Duration: 0x0102, Video: blobID(1), VideoSize: 7, Key: [32]byte{0xee}, Thumbnail: blobID(2), ThumbnailSize: 9})
	if len(b) != 1+74 {
		t.Fatalf("length %d", len(b))
	}
	body := b[1:]
	if body[0] != 0x02 || body[1] != 0x01 {
		t.Fatalf("duration: %x", body[0:2])
	}
	if body[2] != 1 || body[18] != 7 {
		t.Fatalf("video fields misplaced: %x", body[2:22])
	}
	if body[22] != 2 || body[38] != 9 {
		t.Fatalf("thumbnail fields misplaced: %x", body[22:42])
	}
	if body[42] != 0xee || len(body[42:]) != 32 {
		t.Fatalf("key must close the body: %x", body[42:])
	}

	p, err := wire.Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v := p.(wire.Video); v.Key[0] != 0xee || v.Thumbnail != blobID(2) || v.ThumbnailSize != 9 {
		t.Fatalf("decoded %+v", v)
	}
}

func TestEncode_FileJSONKeys(t *testing.T) {
	b := mustEncode(t, wire.File{Blob: blobID(1), MIME: "image/jpeg", Name: "a.jpg", Size: 3, Rendering: domain.RenderingMedia})
	var m map[string]any
	if err := json.Unmarshal(b[1:], &m); err != nil {
		t.Fatalf("json: %v", err)
	}
	for _, k := range []string{"b", "k", "m", "n", "s", "i", "j"} {
		if _, ok := m[k]; !ok {
			t.Fatalf("missing key %q in %s", k, b[1:])
		}
	}
	if m["i"].(float64) != 1 || m["j"].(float64) != 1 {
		t.Fatalf("rendering flags: i=%v j=%v", m["i"], m["j"])
	}
	if _, ok := m["t"]; ok {
		t.Fatal("thumbnail key present without thumbnail")
	}
}

func TestDecode_LegacyRenderingFlag(t *testing.T) {
	body := `{"b":"` + strings.Repeat("01", 16) + `","k":"` + strings.Repeat("02", 32) + `","m":"video/mp4","n":"v.mp4","s":1,"i":1}`
	p, err := wire.Decode(append([]byte{byte(wire.TypeFile)}, body...))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f := p.(wire.File); f.Rendering != domain.RenderingMedia {
		t.Fatalf("rendering %v", f.Rendering)
	}
}

func TestEncode_Limits(t *testing.T) {
	long := strings.Repeat("a", wire.DefaultMaxTextLength+1)
	if _, err := wire.DefaultLimits.Encode(wire.Text{Body: long}); !errors.Is(err, domain.ErrPayloadTooLarge) {
		t.Fatalf("long text: %v", err)
	}
	if _, err := wire.DefaultLimits.Encode(wire.File{Blob: blobID(1), Caption: long}); !errors.Is(err, domain.ErrPayloadTooLarge) {
		t.Fatalf("long caption: %v", err)
	}
	small := wire.Limits{MaxTextLength: 100, MaxPayloadSize: 50}
	if _, err := small.Encode(wire.Text{Body: strings.Repeat("b", 60)}); !errors.Is(err, domain.ErrPayloadTooLarge) {
		t.Fatalf("payload limit: %v", err)
	}
	if _, err := wire.DefaultLimits.Encode(wire.Text{}); !errors.Is(err, domain.ErrInvalidMessage) {
		t.Fatalf("empty text: %v", err)
	}
}

func TestDecode_Malformed(t *testing.T) {
	for _, b := range [][]byte{
		nil,
		{byte(wire.TypeText)},
		{byte(wire.TypeImage), 1, 2},
		{byte(wire.TypeVideo), 1},
		append([]byte{byte(wire.TypeFile)}, "{"...),
		{0x7f, 1},
	} {
		if _, err := wire.Decode(b); !errors.Is(err, wire.ErrMalformed) {
			t.Fatalf("decode %x: %v", b, err)
		}
	}
}

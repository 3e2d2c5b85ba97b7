package envelope_test

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"e2egateway/internal/crypto"
	"e2egateway/internal/domain"
	"e2egateway/internal/protocol/envelope"
)

func keys(t *testing.T) (domain.PrivateKey, domain.PublicKey) {
	t.Helper()
	priv, pub, err := crypto.GenerateKeyPair(rand.Reader)
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	return priv, pub
}

func TestSealOpen(t *testing.T) {
	aPriv, aPub := keys(t)
	bPriv, bPub := keys(t)

	payload := []byte{0x01, 'h', 'e', 'l', 'l', 'o'}
	env, err := envelope.Seal("ECHOECHO", payload, bPub, aPriv)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if env.To != "ECHOECHO" {
		t.Fatalf("to: %s", env.To)
	}
	if len(env.Bytes()) != 24+len(env.Box) {
		t.Fatal("envelope bytes are not nonce || box")
	}
	got, err := envelope.Open(env, aPub, bPriv)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("got %x", got)
	}
}

func TestSeal_FreshNonceAndCiphertext(t *testing.T) {
	aPriv, _ := keys(t)
	_, bPub := keys(t)
	payload := []byte{0x01, 'h', 'i'}

	e1, err := envelope.Seal("ECHOECHO", payload, bPub, aPriv)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	e2, err := envelope.Seal("ECHOECHO", payload, bPub, aPriv)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if e1.Nonce == e2.Nonce {
		t.Fatal("nonce reused")
	}
	if bytes.Equal(e1.Box, e2.Box) {
		t.Fatal("ciphertexts are equal")
	}
}

func TestSeal_BrokenRandom(t *testing.T) {
	aPriv, _ := keys(t)
	_, bPub := keys(t)
	s := envelope.Sealer{Rand: bytes.NewReader(nil)}
	if _, err := s.Seal("ECHOECHO", []byte{1, 'x'}, bPub, aPriv); !errors.Is(err, domain.ErrEncryptionFailed) {
		t.Fatalf("want ErrEncryptionFailed, got %v", err)
	}
}

func TestPad(t *testing.T) {
	// zero padding byte is bumped to 1, short input is padded up to the minimum
	p, err := envelope.Pad(bytes.NewReader([]byte{0}), []byte("x"))
	if err != nil {
		t.Fatalf("pad: %v", err)
	}
	if len(p) != envelope.MinPaddedLength {
		t.Fatalf("len %d", len(p))
	}
	long := bytes.Repeat([]byte("y"), 100)
	p, _ = envelope.Pad(bytes.NewReader([]byte{7}), long)
	if len(p) != 107 || p[106] != 7 {
		t.Fatalf("len %d last %d", len(p), p[len(p)-1])
	}
	got, err := envelope.Unpad(p)
	if err != nil || !bytes.Equal(got, long) {
		t.Fatalf("unpad: %v", err)
	}
	if _, err := envelope.Unpad([]byte{1, 2, 3}); !errors.Is(err, envelope.ErrBadPadding) {
		t.Fatalf("bad padding: %v", err)
	}
}

package core

import (
	"bytes"
	"testing"

	"github.com/keerthanashanmugam/gcomm/pkg/gcomm/types"
)

func frame(t *testing.T, payload []byte, element int) []byte {
	t.Helper()
	total := types.PadUp(types.HeaderSize+len(payload), element)
	buf := make([]byte, total)
	types.EncodeHeader(buf, len(payload))
	copy(buf[types.HeaderSize:], payload)
	return buf
}

func TestReceiveBufferSingleMessage(t *testing.T) {
	rb := newReceiveBuffer()
	msg := []byte("hello")
	rb.scatter(frame(t, msg, 8))

	got, ok := rb.tryExtract(8)
	if !ok {
		t.Fatal("expected a complete message")
	}
	if !bytes.Equal(got, msg) {
		t.Fatalf("got %q want %q", got, msg)
	}

	if _, ok := rb.tryExtract(8); ok {
		t.Fatal("expected no further message")
	}
}

func TestReceiveBufferSplitAcrossScatters(t *testing.T) {
	rb := newReceiveBuffer()
	msg := []byte("split across two writes")
	full := frame(t, msg, 8)

	mid := len(full) / 2
	rb.scatter(full[:mid])
	if _, ok := rb.tryExtract(8); ok {
		t.Fatal("should not extract a message from a partial frame")
	}

	rb.scatter(full[mid:])
	got, ok := rb.tryExtract(8)
	if !ok {
		t.Fatal("expected a complete message once the frame is whole")
	}
	if !bytes.Equal(got, msg) {
		t.Fatalf("got %q want %q", got, msg)
	}
}

func TestReceiveBufferMultipleMessagesQueue(t *testing.T) {
	rb := newReceiveBuffer()
	a, b := []byte("first"), []byte("second")
	rb.scatter(frame(t, a, 8))
	rb.scatter(frame(t, b, 8))

	got1, ok := rb.tryExtract(8)
	if !ok || !bytes.Equal(got1, a) {
		t.Fatalf("first message got %q ok=%v", got1, ok)
	}
	got2, ok := rb.tryExtract(8)
	if !ok || !bytes.Equal(got2, b) {
		t.Fatalf("second message got %q ok=%v", got2, ok)
	}
}

func TestReceiveBufferTryExtractBeforeScatterReturnsNotOK(t *testing.T) {
	rb := newReceiveBuffer()
	if _, ok := rb.tryExtract(8); ok {
		t.Fatal("expected no message before any scatter")
	}
	if !rb.empty.Load() {
		t.Fatal("expected empty to remain true")
	}
}

func TestReceiveBufferEmptyFlagTracksBufferState(t *testing.T) {
	rb := newReceiveBuffer()
	msg := []byte("flag-check")
	rb.scatter(frame(t, msg, 8))
	if rb.empty.Load() {
		t.Fatal("expected empty to be false once data is scattered")
	}
	if _, ok := rb.tryExtract(8); !ok {
		t.Fatal("expected a complete message")
	}
	if !rb.empty.Load() {
		t.Fatal("expected empty to be true after draining the only message")
	}
}

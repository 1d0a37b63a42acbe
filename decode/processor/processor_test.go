package processor

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/gfxcapture/dxreplay/format"
)

type recordingConsumer struct {
	calls      []format.ApiCallId
	markers    int
	presentsID format.ApiCallId
}

func (c *recordingConsumer) ProcessFunctionCall(_ context.Context, _ format.BlockHeader, callID format.ApiCallId, _ []byte) error {
	c.calls = append(c.calls, callID)
	return nil
}
func (c *recordingConsumer) ProcessMethodCall(_ context.Context, _ format.BlockHeader, callID format.ApiCallId, _ []byte) error {
	c.calls = append(c.calls, callID)
	return nil
}
func (c *recordingConsumer) ProcessMetaData(context.Context, format.BlockHeader, uint32, []byte) error {
	return nil
}
func (c *recordingConsumer) ProcessStateMarker(context.Context, format.BlockHeader, format.MarkerType, []byte) error {
	c.markers++
	return nil
}
func (c *recordingConsumer) ProcessAnnotation(context.Context, format.BlockHeader, format.AnnotationType, []byte) error {
	return nil
}
func (c *recordingConsumer) IsFrameDelimiter(id format.ApiCallId) bool {
	return id == c.presentsID
}

// writeFunctionCallBlock appends one FunctionCall block with the given call
// id and an arbitrary 4-byte parameter payload.
func writeFunctionCallBlock(buf *bytes.Buffer, callID format.ApiCallId) {
	payload := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	size := uint64(4 + len(payload)) // api call id + payload

	var hdr [12]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(format.BlockTypeFunctionCall))
	binary.LittleEndian.PutUint64(hdr[4:12], size)
	buf.Write(hdr[:])

	var id [4]byte
	binary.LittleEndian.PutUint32(id[:], uint32(callID))
	buf.Write(id[:])
	buf.Write(payload)
}

func TestProcessorDispatchesFunctionCallsAndTracksFrames(t *testing.T) {
	var wire bytes.Buffer
	writeFunctionCallBlock(&wire, 100)
	writeFunctionCallBlock(&wire, 200) // frame delimiter
	writeFunctionCallBlock(&wire, 100)

	consumer := &recordingConsumer{presentsID: 200}
	p := New(context.Background(), &wire, consumer)

	more, err := p.ProcessNextFrame()
	if err != nil {
		t.Fatalf("ProcessNextFrame() error = %v", err)
	}
	if !more {
		t.Fatalf("ProcessNextFrame() more = false, want true after a delimiter")
	}
	if got, want := consumer.calls, []format.ApiCallId{100, 200}; !equalCallIDs(got, want) {
		t.Fatalf("calls after first frame = %v, want %v", got, want)
	}
	if p.CurrentFrameNumber() != 1 {
		t.Fatalf("CurrentFrameNumber() = %d, want 1", p.CurrentFrameNumber())
	}

	more, err = p.ProcessNextFrame()
	if err != nil {
		t.Fatalf("ProcessNextFrame() second call error = %v", err)
	}
	if more {
		t.Fatalf("ProcessNextFrame() more = true, want false at end of stream")
	}
	if got, want := consumer.calls, []format.ApiCallId{100, 200, 100}; !equalCallIDs(got, want) {
		t.Fatalf("calls after stream exhausted = %v, want %v", got, want)
	}
}

func equalCallIDs(a, b []format.ApiCallId) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

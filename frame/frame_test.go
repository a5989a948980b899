package frame

import (
	"bytes"
	"testing"
)

func TestFrameEncodeOptions(t *testing.T) {
	f := NewFrame(0, &OptionsBody{})
	got, err := f.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0x02, 0x00, 0x00, 0x05, 0x00, 0x00, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % X, want % X", got, want)
	}
}

func TestFrameEncodeStartup(t *testing.T) {
	f := NewFrame(0, NewStartupBody(""))
	got, err := f.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{
		0x02, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x16,
		0x00, 0x01, 0x00, 0x0B, 0x43, 0x51, 0x4C, 0x5F, 0x56, 0x45, 0x52, 0x53, 0x49, 0x4F, 0x4E,
		0x00, 0x05, 0x33, 0x2E, 0x30, 0x2E, 0x30,
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % X, want % X", got, want)
	}
}

func TestFrameEncodeQuery(t *testing.T) {
	f := NewFrame(0, &QueryBody{CQL: "SELECT * FROM system.peers;", Consistency: ConsistencyOne})
	got, err := f.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{
		0x02, 0x00, 0x00, 0x07, 0x00, 0x00, 0x00, 0x22,
		0x00, 0x00, 0x00, 0x1B,
		0x53, 0x45, 0x4C, 0x45, 0x43, 0x54, 0x20, 0x2A, 0x20, 0x46, 0x52, 0x4F, 0x4D, 0x20,
		0x73, 0x79, 0x73, 0x74, 0x65, 0x6D, 0x2E, 0x70, 0x65, 0x65, 0x72, 0x73, 0x3B,
		0x00, 0x01, 0x00,
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % X, want % X", got, want)
	}
}

func TestFrameErrorRoundTrip(t *testing.T) {
	wire := []byte{
		0x81, 0x01, 0x7F, 0x00, 0x00, 0x00, 0x00, 0x0C,
		0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x06, 0x66, 0x6F, 0x6F, 0x62, 0x61, 0x72,
	}
	p := NewParser()
	frames, err := feedAll(p, wire)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	f := frames[0]
	if f.Version != 0x81 || f.Flags != 0x01 || f.Stream != 0x7F || f.Opcode != OpError {
		t.Fatalf("header mismatch: %+v", f)
	}
	body, ok := f.Body.(*ErrorBody)
	if !ok {
		t.Fatalf("body type = %T", f.Body)
	}
	if body.Code != -1 || body.Message != "foobar" {
		t.Fatalf("body = %+v", body)
	}

	f.Version = 0x81
	reencoded, err := f.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(reencoded, wire) {
		t.Fatalf("got % X, want % X", reencoded, wire)
	}
}

package peerwire

import "testing"

func TestParseEnter(t *testing.T) {
	msg := FormatEnter("peer1", "tcp", "192.168.1.5", "5551", "tcp", "192.168.1.5", "5550")
	c, ok := Parse(msg)
	if !ok {
		t.Fatalf("expected parse to succeed for %q", msg)
	}
	if c.Event != Enter || c.PeerID != "peer1" {
		t.Fatalf("unexpected control: %+v", c)
	}
	if c.Pub.Port != "5551" || c.Receiver.Port != "5550" {
		t.Fatalf("unexpected endpoints: %+v", c)
	}
}

func TestParseExit(t *testing.T) {
	msg := FormatExit("ghost")
	c, ok := Parse(msg)
	if !ok || c.Event != Exit || c.PeerID != "ghost" {
		t.Fatalf("unexpected control: %+v ok=%v", c, ok)
	}
}

func TestParseMalformedRemainderIsOrdinaryPayload(t *testing.T) {
	if _, ok := Parse("PEER:not-actually-control-data"); ok {
		t.Fatalf("expected malformed PEER: payload to fail grammar match")
	}
}

func TestParseRejectsBadID(t *testing.T) {
	if _, ok := Parse("PEER:ENTER:bad id:tcp:*:1:tcp:*:2"); ok {
		t.Fatalf("expected id with space to be rejected")
	}
}

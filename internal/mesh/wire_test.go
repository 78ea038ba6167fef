// ABOUTME: Tests for wire frame encoding, null-field decoding and peer URL
// ABOUTME: normalization.

package mesh

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestPutFrameJSON(t *testing.T) {
	f := newPutFrame("papers", "abc123", map[string]any{"status": "PURGED"})
	if f.ID == "" {
		t.Fatal("put frame must carry a message id")
	}

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	if _, ok := raw["#"]; !ok {
		t.Error(`frame must use "#" as the message id key`)
	}
	if _, ok := raw["get"]; ok {
		t.Error("put frame must not carry a get")
	}

	var back frame
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	if got := back.Put["papers"]["abc123"]["status"]; got != "PURGED" {
		t.Errorf("status = %v, want PURGED", got)
	}
}

func TestGetFrameJSON(t *testing.T) {
	f := newGetFrame("mempool")
	if f.ID == "" {
		t.Fatal("get frame must carry a message id")
	}

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"get":{"#":"mempool"}`) {
		t.Errorf("unexpected get encoding: %s", data)
	}
}

func TestFrameDecodesNullFields(t *testing.T) {
	var f frame
	err := json.Unmarshal([]byte(`{"#":"m1","put":{"papers":{"abc123":null}}}`), &f)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	fields, ok := f.Put["papers"]["abc123"]
	if !ok {
		t.Fatal("announced id missing from decoded frame")
	}
	if fields != nil {
		t.Errorf("fields = %v, want nil for an announce-only entry", fields)
	}
}

func TestFrameDecodesAck(t *testing.T) {
	var f frame
	err := json.Unmarshal([]byte(`{"#":"m2","@":"m1","ok":true,"err":""}`), &f)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if f.ReplyTo != "m1" {
		t.Errorf("ReplyTo = %q, want m1", f.ReplyTo)
	}
	if len(f.Put) != 0 {
		t.Errorf("ack must carry no put, got %v", f.Put)
	}
}

func TestWsURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "http://relay.example/gun", want: "ws://relay.example/gun"},
		{in: "https://relay.example/gun", want: "wss://relay.example/gun"},
		{in: "ws://relay.example/gun", want: "ws://relay.example/gun"},
		{in: "wss://relay.example:8765/gun", want: "wss://relay.example:8765/gun"},
		{in: "ftp://relay.example/gun", wantErr: true},
		{in: "relay.example/gun", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := wsURL(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("wsURL(%q) = %q, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("wsURL(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("wsURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

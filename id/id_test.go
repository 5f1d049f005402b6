package id_test

import (
	"encoding/json"
	"testing"

	"github.com/stintlabs/stint/id"
)

func TestNewTriggerID_HasPrefix(t *testing.T) {
	trg := id.NewTriggerID()
	if trg.Prefix() != id.PrefixTrigger {
		t.Errorf("Prefix() = %q, want %q", trg.Prefix(), id.PrefixTrigger)
	}
	if trg.IsNil() {
		t.Error("NewTriggerID() returned nil ID")
	}
}

func TestParse_RoundTrip(t *testing.T) {
	orig := id.NewRunID()
	parsed, err := id.Parse(orig.String())
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", orig, err)
	}
	if parsed.String() != orig.String() {
		t.Errorf("Parse round trip = %q, want %q", parsed, orig)
	}
}

func TestParse_Empty(t *testing.T) {
	if _, err := id.Parse(""); err == nil {
		t.Error("Parse(\"\") should fail")
	}
}

func TestParseWithPrefix_Mismatch(t *testing.T) {
	run := id.NewRunID()
	if _, err := id.ParseTriggerID(run.String()); err == nil {
		t.Errorf("ParseTriggerID(%q) should fail on run prefix", run)
	}
}

func TestID_JSONRoundTrip(t *testing.T) {
	orig := id.NewTriggerID()

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}

	var back id.ID
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if back.String() != orig.String() {
		t.Errorf("JSON round trip = %q, want %q", back, orig)
	}
}

func TestNil_Behavior(t *testing.T) {
	if !id.Nil.IsNil() {
		t.Error("Nil.IsNil() = false")
	}
	if id.Nil.String() != "" {
		t.Errorf("Nil.String() = %q, want empty", id.Nil.String())
	}
}

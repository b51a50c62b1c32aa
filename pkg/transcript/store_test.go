package transcript

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "conversation.json"))
	in := []TurnRecord{
		{SpeakerYou, "hello"},
		{SpeakerOther, "hi back"},
	}
	if err := store.Save(in); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	out, err := store.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d records, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("record %d = %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestStoreFileShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversation.json")
	store := NewStore(path)
	if err := store.Save([]TurnRecord{{SpeakerYou, "hello"}, {SpeakerOther, "hi"}}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var raw []map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("log is not an array of objects: %v", err)
	}
	if len(raw) != 2 {
		t.Fatalf("got %d entries, want 2", len(raw))
	}
	if raw[0]["you"] != "hello" {
		t.Errorf(`entry 0 = %v, want {"you": "hello"}`, raw[0])
	}
	if raw[1]["other"] != "hi" {
		t.Errorf(`entry 1 = %v, want {"other": "hi"}`, raw[1])
	}
}

func TestStoreSaveNilWritesEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversation.json")
	store := NewStore(path)
	if err := store.Save(nil); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var raw []map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("empty log is not a JSON array: %v", err)
	}
	if len(raw) != 0 {
		t.Errorf("empty log has %d entries", len(raw))
	}
}

func TestStoreLoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.json"))
	records, err := store.Load()
	if err != nil {
		t.Fatalf("load of missing file errored: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("missing file loaded %d records", len(records))
	}
}

func TestTurnRecordRejectsUnknownSpeaker(t *testing.T) {
	var r TurnRecord
	if err := json.Unmarshal([]byte(`{"narrator": "hm"}`), &r); err == nil {
		t.Error("unknown speaker label accepted")
	}
	if err := json.Unmarshal([]byte(`{"you": "a", "other": "b"}`), &r); err == nil {
		t.Error("two-key record accepted")
	}
}

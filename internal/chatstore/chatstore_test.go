package chatstore

import (
	"encoding/json"
	"testing"
)

func TestMetadata_RoundTrip(t *testing.T) {
	cases := []Metadata{
		{IsHTML: true, IsV2Dashboard: false},
		{IsHTML: false, IsV2Dashboard: true},
		{IsHTML: true, IsV2Dashboard: true},
		{},
	}
	for _, want := range cases {
		raw, err := json.Marshal(want)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		var got Metadata
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		if got != want {
			t.Errorf("round trip mismatch: want %+v, got %+v (json: %s)", want, got, raw)
		}
	}
}

func TestMessage_MetadataFieldNamesMatchSpec(t *testing.T) {
	msg := Message{Role: "user", Text: "hi", Metadata: Metadata{IsHTML: true, IsV2Dashboard: true}}
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	meta, ok := decoded["metadata"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected a metadata object, got %T", decoded["metadata"])
	}
	if meta["is_html"] != true {
		t.Errorf("want metadata.is_html=true, got %v", meta["is_html"])
	}
	if meta["is_v2_dashboard"] != true {
		t.Errorf("want metadata.is_v2_dashboard=true, got %v", meta["is_v2_dashboard"])
	}
}

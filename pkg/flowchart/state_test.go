package flowchart

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestPhase_TextRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		want    Phase
		wantErr bool
	}{
		{"idle", PhaseIdle, false},
		{"node-selected", PhaseNodeSelected, false},
		{"connecting", PhaseConnecting, false},
		{"selected", PhaseIdle, true},
	}

	for _, tt := range tests {
		var got Phase
		err := got.UnmarshalText([]byte(tt.name))
		if (err != nil) != tt.wantErr {
			t.Errorf("UnmarshalText(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("UnmarshalText(%q) = %v, want %v", tt.name, got, tt.want)
		}
		if !tt.wantErr {
			text, _ := tt.want.MarshalText()
			if string(text) != tt.name {
				t.Errorf("MarshalText(%v) = %q, want %q", tt.want, text, tt.name)
			}
		}
	}
}

func TestSnapshot_JSONRoundTrip(t *testing.T) {
	e := NewEditor(sample, Options{})
	defer e.Close()

	e.HandlePointerMove(5, 6)
	e.HandleNodeClick("A")
	selected := e.Snapshot()

	e.StartCreateEdge()
	e.HandlePointerMove(30, 40)
	connecting := e.Snapshot()

	for _, want := range []Snapshot{selected, connecting} {
		data, err := json.Marshal(want)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		var got Snapshot
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Expected %+v after round trip, got %+v", want, got)
		}
	}

	if selected.Phase != PhaseNodeSelected || connecting.Phase != PhaseConnecting {
		t.Errorf("Expected node-selected then connecting, got %v then %v", selected.Phase, connecting.Phase)
	}
}

func TestSnapshot_UnknownPhaseFails(t *testing.T) {
	var s Snapshot
	if err := json.Unmarshal([]byte(`{"source":"","phase":"dragging","isConnecting":false}`), &s); err == nil {
		t.Error("Expected an error for an unknown phase")
	}
}

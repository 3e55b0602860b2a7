package schema

import (
	"encoding/json"
	"testing"
)

func TestDecodeAction(t *testing.T) {
	payload := map[string]any{
		"action": "create_box",
		"params": map[string]any{"width": 20.0, "height": 10.0, "depth": 5.0},
	}

	action, err := DecodeAction(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if action.Action != ActionCreateBox {
		t.Errorf("expected action 'create_box', got %q", action.Action)
	}
	if action.Params["width"] != 20.0 {
		t.Errorf("expected width 20, got %v", action.Params["width"])
	}
}

func TestDecodeActionMissingVerb(t *testing.T) {
	payload := map[string]any{"params": map[string]any{"width": 20.0}}
	if _, err := DecodeAction(payload); err == nil {
		t.Error("expected error for payload without action verb")
	}
}

func TestDecodeActionUnknownKeysSurvive(t *testing.T) {
	payload := map[string]any{
		"action": "create_box",
		"params": map[string]any{"width": 20.0, "tolerance_class": "H7"},
	}

	action, err := DecodeAction(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if action.Params["tolerance_class"] != "H7" {
		t.Errorf("unknown param key must survive, got %v", action.Params)
	}

	// And through a full serialize/re-parse cycle.
	raw, err := json.Marshal(action)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var back Action
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if back.Params["tolerance_class"] != "H7" {
		t.Errorf("unknown param key lost in round trip: %v", back.Params)
	}
}

func TestDecodeActionSequence(t *testing.T) {
	payload := map[string]any{
		"actions": []any{
			map[string]any{"action": "create_box", "params": map[string]any{"width": 20.0}},
			map[string]any{"action": "create_hole", "params": map[string]any{"diameter": 5.0}},
		},
		"total_steps": 2,
	}

	seq, err := DecodeActionSequence(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seq.Actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(seq.Actions))
	}
	if seq.Actions[0].Action != "create_box" || seq.Actions[1].Action != "create_hole" {
		t.Errorf("actions out of order: %v", seq.Actions)
	}
	if seq.StepCountMismatch() {
		t.Error("expected matching step count")
	}
}

func TestStepCountMismatch(t *testing.T) {
	seq := ActionSequence{
		Actions:    []Action{{Action: "create_box", Params: map[string]any{}}},
		TotalSteps: 3,
	}
	if !seq.StepCountMismatch() {
		t.Error("expected mismatch for total_steps=3 with one action")
	}
}

func TestSequenceRoundTrip(t *testing.T) {
	seq := ActionSequence{
		Actions: []Action{
			{Action: "create_box", Params: map[string]any{"width": 20.0, "height": 20.0, "depth": 5.0}, Explanation: "Create base plate"},
			{Action: "create_hole", Params: map[string]any{"diameter": 5.0, "position": map[string]any{"x": 10.0, "y": 10.0}}, Explanation: "Add mounting hole"},
		},
		TotalSteps: 2,
	}

	raw, err := json.Marshal(seq)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var back ActionSequence
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if len(back.Actions) != 2 {
		t.Fatalf("expected 2 actions after round trip, got %d", len(back.Actions))
	}
	if back.TotalSteps != 2 {
		t.Errorf("expected total_steps 2, got %d", back.TotalSteps)
	}
	for i := range seq.Actions {
		if back.Actions[i].Action != seq.Actions[i].Action {
			t.Errorf("action %d: expected %q, got %q", i, seq.Actions[i].Action, back.Actions[i].Action)
		}
		if back.Actions[i].Explanation != seq.Actions[i].Explanation {
			t.Errorf("action %d: explanation changed in round trip", i)
		}
	}
	if back.Actions[0].Params["width"] != 20.0 {
		t.Errorf("expected width 20 after round trip, got %v", back.Actions[0].Params["width"])
	}
}

func TestDecodeParamsTyped(t *testing.T) {
	action := Action{
		Action: ActionCreateBox,
		Params: map[string]any{"width": 20.0, "height": 10.0, "depth": 5.0, "unit": "mm", "extra": true},
	}

	box, err := DecodeParams[CreateBoxParams](action)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if box.Width != 20 || box.Height != 10 || box.Depth != 5 {
		t.Errorf("unexpected dimensions: %+v", box)
	}
	if box.Unit != "mm" {
		t.Errorf("expected unit 'mm', got %q", box.Unit)
	}
	// The open bag still carries the extra key the typed view dropped.
	if action.Params["extra"] != true {
		t.Error("open params lost the extra key")
	}
}

func TestDecodeParamsHole(t *testing.T) {
	action := Action{
		Action: ActionCreateHole,
		Params: map[string]any{"diameter": 5.0, "position": map[string]any{"x": 10.0, "y": 10.0}},
	}

	hole, err := DecodeParams[CreateHoleParams](action)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hole.Diameter != 5 {
		t.Errorf("expected diameter 5, got %v", hole.Diameter)
	}
	if hole.Depth != nil {
		t.Errorf("expected nil depth for through hole, got %v", *hole.Depth)
	}
	if hole.Position["x"] != 10 {
		t.Errorf("expected position x 10, got %v", hole.Position["x"])
	}
}

func TestKnownActionType(t *testing.T) {
	if !KnownActionType("create_box") {
		t.Error("create_box should be recognized")
	}
	if KnownActionType("teleport") {
		t.Error("teleport should not be recognized")
	}
}

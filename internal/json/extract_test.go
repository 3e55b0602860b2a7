package json

import (
	"testing"
)

func TestPureJSON(t *testing.T) {
	response := `{"action": "create_box", "params": {"width": 20}}`
	obj := ObjectFromResponse(response)
	if obj == nil {
		t.Fatal("expected object, got nil")
	}
	if obj["action"] != "create_box" {
		t.Errorf("expected action 'create_box', got %v", obj["action"])
	}
	params, ok := obj["params"].(map[string]any)
	if !ok {
		t.Fatalf("expected params object, got %T", obj["params"])
	}
	if params["width"] != float64(20) {
		t.Errorf("expected width 20, got %v", params["width"])
	}
}

func TestJSONWithPrefix(t *testing.T) {
	response := `Here is the result: {"action": "create_box", "params": {}}`
	obj := ObjectFromResponse(response)
	if obj == nil {
		t.Fatal("expected object, got nil")
	}
	if obj["action"] != "create_box" {
		t.Errorf("expected action 'create_box', got %v", obj["action"])
	}
}

func TestJSONWithSuffix(t *testing.T) {
	response := `{"action": "create_box", "params": {}} That's the output.`
	obj := ObjectFromResponse(response)
	if obj == nil {
		t.Fatal("expected object, got nil")
	}
	if obj["action"] != "create_box" {
		t.Errorf("expected action 'create_box', got %v", obj["action"])
	}
}

func TestJSONWithBoth(t *testing.T) {
	response := `Let me think... {"action": "fillet", "params": {"radius": 2}} Done!`
	obj := ObjectFromResponse(response)
	if obj == nil {
		t.Fatal("expected object, got nil")
	}
	if obj["action"] != "fillet" {
		t.Errorf("expected action 'fillet', got %v", obj["action"])
	}
}

func TestNoJSON(t *testing.T) {
	response := "This is just plain text without any JSON."
	obj := ObjectFromResponse(response)
	if obj != nil {
		t.Errorf("expected nil for plain text, got %v", obj)
	}
}

func TestNoBraces(t *testing.T) {
	obj := ObjectFromResponse("could you clarify which component you mean?")
	if obj != nil {
		t.Errorf("expected nil for brace-free text, got %v", obj)
	}
}

func TestMarkdownCodeBlock(t *testing.T) {
	response := "```json\n{\"action\": \"extrude\", \"params\": {\"distance\": 5}}\n```"
	obj := ObjectFromResponse(response)
	if obj == nil {
		t.Fatal("expected object, got nil")
	}
	if obj["action"] != "extrude" {
		t.Errorf("expected action 'extrude', got %v", obj["action"])
	}
}

func TestPlainCodeBlock(t *testing.T) {
	response := "```\n{\"action\": \"extrude\"}\n```"
	obj := ObjectFromResponse(response)
	if obj == nil {
		t.Fatal("expected object, got nil")
	}
	if obj["action"] != "extrude" {
		t.Errorf("expected action 'extrude', got %v", obj["action"])
	}
}

func TestMalformedJSON(t *testing.T) {
	response := `{"action": "create_box", "params": {`
	obj := ObjectFromResponse(response)
	if obj != nil {
		t.Errorf("expected nil for unbalanced braces, got %v", obj)
	}
}

func TestNestedObject(t *testing.T) {
	response := `{"actions": [{"action": "create_sketch", "params": {"plane": "XY"}}], "total_steps": 1}`
	obj := ObjectFromResponse(response)
	if obj == nil {
		t.Fatal("expected object, got nil")
	}
	if _, ok := obj["actions"]; !ok {
		t.Error("expected 'actions' key to survive extraction")
	}
	if obj["total_steps"] != float64(1) {
		t.Errorf("expected total_steps 1, got %v", obj["total_steps"])
	}
}

func TestStripMarkdownCodeBlocks(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"no fence", `{"a": 1}`, `{"a": 1}`},
		{"whitespace", "  {\"a\": 1}  ", `{"a": 1}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := stripMarkdownCodeBlocks(tc.input)
			if got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

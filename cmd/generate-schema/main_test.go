package main

import (
	"encoding/json"
	"testing"
)

func TestGenerate(t *testing.T) {
	data, err := generate()
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	var schema struct {
		Title      string                     `json:"title"`
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(data, &schema); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}

	if schema.Title != "appshell Configuration" {
		t.Errorf("Expected title 'appshell Configuration', got %q", schema.Title)
	}

	for _, key := range []string{"logging", "storage", "seed", "shell", "limits", "metrics"} {
		if _, ok := schema.Properties[key]; !ok {
			t.Errorf("Expected property %q in schema", key)
		}
	}
}

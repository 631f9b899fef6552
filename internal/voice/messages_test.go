package voice

import (
	"encoding/json"
	"testing"
)

func TestNewSessionUpdate_Shape(t *testing.T) {
	cfg := Config{
		Instructions:       "be brief",
		Voice:              "alloy",
		Temperature:        0.7,
		TranscriptionModel: "whisper-1",
	}

	data, err := json.Marshal(newSessionUpdate(cfg))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded["type"] != "session.update" {
		t.Fatalf("wrong type: %v", decoded["type"])
	}
	session, ok := decoded["session"].(map[string]any)
	if !ok {
		t.Fatal("missing session object")
	}
	if session["instructions"] != "be brief" {
		t.Fatalf("wrong instructions: %v", session["instructions"])
	}
	if session["voice"] != "alloy" {
		t.Fatalf("wrong voice: %v", session["voice"])
	}
	transcription, ok := session["input_audio_transcription"].(map[string]any)
	if !ok {
		t.Fatal("missing input_audio_transcription")
	}
	if transcription["model"] != "whisper-1" {
		t.Fatalf("wrong transcription model: %v", transcription["model"])
	}
}

func TestNewUserMessage_Shape(t *testing.T) {
	data, err := json.Marshal(newUserMessage("hello"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded struct {
		Type string `json:"type"`
		Item struct {
			Type    string `json:"type"`
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"item"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded.Type != "conversation.item.create" {
		t.Fatalf("wrong type: %s", decoded.Type)
	}
	if decoded.Item.Type != "message" || decoded.Item.Role != "user" || decoded.Item.Content != "hello" {
		t.Fatalf("wrong item: %+v", decoded.Item)
	}
}

func TestParseControlEvent(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		ok       bool
		wantType string
	}{
		{"valid transcript event", `{"type":"response.done","response":{}}`, true, "response.done"},
		{"missing type", `{"response":{}}`, false, ""},
		{"not json", `not json at all`, false, ""},
		{"empty", ``, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := parseControlEvent([]byte(tt.payload))
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && ev.Type != tt.wantType {
				t.Fatalf("type = %q, want %q", ev.Type, tt.wantType)
			}
			if ok && ev.Kind != EventControl {
				t.Fatalf("kind = %v, want control", ev.Kind)
			}
		})
	}
}

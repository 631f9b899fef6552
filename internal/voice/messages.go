package voice

import "encoding/json"

// Control messages exchanged on the upstream data channel. Everything here
// is JSON; raw audio travels on the media track, not the channel.

type sessionUpdate struct {
	Type    string         `json:"type"`
	Session sessionPayload `json:"session"`
}

type sessionPayload struct {
	Instructions  string             `json:"instructions"`
	Voice         string             `json:"voice"`
	Temperature   float64            `json:"temperature"`
	Transcription transcriptionModel `json:"input_audio_transcription"`
}

type transcriptionModel struct {
	Model string `json:"model"`
}

type conversationItemCreate struct {
	Type string           `json:"type"`
	Item conversationItem `json:"item"`
}

type conversationItem struct {
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

type controlMessage struct {
	Type string `json:"type"`
}

func newSessionUpdate(cfg Config) sessionUpdate {
	return sessionUpdate{
		Type: "session.update",
		Session: sessionPayload{
			Instructions:  cfg.Instructions,
			Voice:         cfg.Voice,
			Temperature:   cfg.Temperature,
			Transcription: transcriptionModel{Model: cfg.TranscriptionModel},
		},
	}
}

func newUserMessage(text string) conversationItemCreate {
	return conversationItemCreate{
		Type: "conversation.item.create",
		Item: conversationItem{
			Type:    "message",
			Role:    "user",
			Content: text,
		},
	}
}

// EventKind distinguishes raw audio payloads from structured control events.
type EventKind int

const (
	EventAudio EventKind = iota
	EventControl
)

// Event is one inbound upstream message, fanned out to subscribers.
// Audio events carry the payload verbatim; control events additionally
// carry the parsed message type.
type Event struct {
	Kind EventKind
	Type string
	Data []byte
}

// parseControlEvent validates a text payload as a control event.
// Malformed payloads return ok=false and are dropped by the caller.
func parseControlEvent(data []byte) (Event, bool) {
	var msg controlMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
		return Event{}, false
	}
	return Event{Kind: EventControl, Type: msg.Type, Data: data}, true
}

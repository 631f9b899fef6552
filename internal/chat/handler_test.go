package chat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newHandlerFixture() (*Handler, *memStore) {
	gen := &fakeGen{reply: "happy to help"}
	svc, store := newChatService(gen, &fakeJobs{})
	return NewHandler(svc, testLogger), store
}

func doChatJSON(h echo.HandlerFunc, target, body string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	err := h(e.NewContext(req, rec))
	return rec, err
}

func TestHandler_Chat(t *testing.T) {
	h, _ := newHandlerFixture()

	rec, err := doChatJSON(h.Chat, "/api/chat", `{"content":"hello"}`)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Content != "happy to help" {
		t.Fatalf("content = %q", resp.Content)
	}
	if resp.SessionID == "" {
		t.Fatal("session_id missing from response")
	}
}

func TestHandler_Chat_MissingContent(t *testing.T) {
	h, _ := newHandlerFixture()

	_, err := doChatJSON(h.Chat, "/api/chat", `{}`)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_UpdateSession(t *testing.T) {
	h, store := newHandlerFixture()

	body := `{"session_id":"sess-9","resume_data":{"summary":"Go dev","skills":["Go","SQL"]}}`
	rec, err := doChatJSON(h.UpdateSession, "/api/session/update", body)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	var resp statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "success" || resp.Message != "Session updated successfully" {
		t.Fatalf("unexpected payload: %+v", resp)
	}

	history := store.histories["sess-9"]
	if len(history) != 1 || history[0].Role != RoleSystem {
		t.Fatalf("resume context not stored: %+v", history)
	}
	if !strings.Contains(history[0].Content, "Go dev") {
		t.Fatalf("summary missing: %q", history[0].Content)
	}
}

func TestHandler_UpdateSession_WithoutResumeData(t *testing.T) {
	h, store := newHandlerFixture()

	rec, err := doChatJSON(h.UpdateSession, "/api/session/update", `{"session_id":"sess-2"}`)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(store.histories["sess-2"]) != 0 {
		t.Fatalf("no context should be stored: %+v", store.histories["sess-2"])
	}
}

func TestHandler_UpdateSession_MissingSessionID(t *testing.T) {
	h, _ := newHandlerFixture()

	_, err := doChatJSON(h.UpdateSession, "/api/session/update", `{}`)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

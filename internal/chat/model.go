package chat

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one conversation turn, stored verbatim in the session
// history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// maxVisibleMessages bounds the user/assistant turns kept per session;
// system context messages are retained on top of that.
const maxVisibleMessages = 20

// TrimHistory keeps every system message and the most recent visible
// turns. Short histories are returned untouched, including their order.
func TrimHistory(msgs []Message) []Message {
	if len(msgs) <= maxVisibleMessages+2 {
		return msgs
	}

	var system, visible []Message
	for _, m := range msgs {
		if m.Role == RoleSystem {
			system = append(system, m)
		} else {
			visible = append(visible, m)
		}
	}
	if len(visible) > maxVisibleMessages {
		visible = visible[len(visible)-maxVisibleMessages:]
	}
	return append(system, visible...)
}

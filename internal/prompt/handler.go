package prompt

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// FallbackPrompt is used whenever the structured prompt file cannot be
// loaded. The assistant still works, just without its richer persona.
const FallbackPrompt = "You are a helpful career assistant named Sophia."

var standardGuidelines = []string{
	"Your purpose is to help students with career planning, job searching, resume review, and interview preparation.",
	"Be warm, professional, and empathetic.",
	"Provide practical, actionable advice tailored to the student's situation.",
	"Ask probing questions to understand their needs, goals, and concerns.",
	"Suggest interview practice when appropriate.",
	"Connect career choices to deeper values and aspirations.",
	"Stay aware of modern workplace trends and emerging industries.",
	"Respect boundaries and redirect inappropriate requests.",
	"You cannot access real-time job listings or guarantee employment outcomes.",
	"You cannot provide specialized legal or mental health support.",
}

// Handler loads a structured XML prompt file and renders the assistant's
// system prompt from it. A broken or missing file degrades to the fallback
// prompt rather than failing startup.
type Handler struct {
	root   *node
	logger *slog.Logger
}

func NewHandler(path string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "prompt")

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("failed to read prompt file, using fallback", "path", path, "error", err)
		return &Handler{logger: logger}
	}
	return newFromBytes(data, logger)
}

func newFromBytes(data []byte, logger *slog.Logger) *Handler {
	root, err := parseXML(data)
	if err != nil {
		logger.Error("failed to parse prompt file, using fallback", "error", err)
		return &Handler{logger: logger}
	}
	return &Handler{root: root, logger: logger}
}

// SystemPrompt renders the full system prompt: identity, interaction
// guidelines, expertise, boundaries, context awareness and the standard
// assistant guidelines, in that order.
func (h *Handler) SystemPrompt() string {
	if h.root == nil || len(h.root.children) == 0 {
		return FallbackPrompt
	}

	var b strings.Builder

	identity := h.root.child("Identity")
	b.WriteString("Identity:\n")
	fmt.Fprintf(&b, "  Name: %s\n", identity.childText("Name", "Sophia"))
	fmt.Fprintf(&b, "  Role: %s\n", identity.childText("Role", "Career Guidance Professional"))
	writeSubsection(&b, identity.child("Background"), "  Background:")
	writeSubsection(&b, identity.child("Personality"), "  Personality:")

	writeSection(&b, h.root.child("InteractionGuidelines"), "Interaction Guidelines:")
	writeExpertise(&b, h.root.child("ExpertiseAreas"))
	writeSection(&b, h.root.child("ResponsibleAIBoundaries"), "Responsible AI Boundaries:")
	writeSection(&b, h.root.child("CareerContextAwareness"), "Career Context Awareness:")
	writeSection(&b, h.root.child("ProactiveAdvising"), "Proactive Advising:")

	b.WriteString("\nCareer Assistant Guidelines:\n")
	for _, g := range standardGuidelines {
		fmt.Fprintf(&b, "  - %s\n", g)
	}

	b.WriteString("\nIMPORTANT: Your responses should be conversational and natural without using explicit section headers like 'Acknowledgment:', 'Insight:', etc.")

	return b.String()
}

// VoiceInstructions adapts the system prompt for the realtime voice
// session, where long answers read poorly.
func (h *Handler) VoiceInstructions() string {
	return h.SystemPrompt() + "\n\nYou are speaking with the user over voice. Keep responses short, conversational, and easy to follow aloud."
}

func writeSubsection(b *strings.Builder, n *node, header string) {
	if n == nil || len(n.children) == 0 {
		return
	}
	b.WriteString(header + "\n")
	for _, c := range n.children {
		fmt.Fprintf(b, "    %s: %s\n", c.name, c.text)
	}
}

func writeSection(b *strings.Builder, n *node, header string) {
	if n == nil || len(n.children) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s\n", header)
	for _, c := range n.children {
		if items, ok := c.listValues(); ok {
			fmt.Fprintf(b, "  %s:\n", c.name)
			for _, item := range items {
				fmt.Fprintf(b, "    - %s\n", item)
			}
			continue
		}
		fmt.Fprintf(b, "  %s: %s\n", c.name, c.text)
	}
}

func writeExpertise(b *strings.Builder, n *node) {
	if n == nil || len(n.children) == 0 {
		return
	}
	b.WriteString("\nExpertise Areas:\n")
	for _, area := range n.children {
		fmt.Fprintf(b, "  %s:\n", area.name)
		if area.isLeaf() {
			fmt.Fprintf(b, "    %s\n", area.text)
			continue
		}
		for _, c := range area.children {
			if items, ok := c.listValues(); ok {
				fmt.Fprintf(b, "    %s:\n", c.name)
				for _, item := range items {
					fmt.Fprintf(b, "      - %s\n", item)
				}
				continue
			}
			fmt.Fprintf(b, "    %s: %s\n", c.name, c.text)
		}
	}
}

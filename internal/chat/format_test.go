package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pathfinder-ai/career-backend/internal/job"
)

func TestFormatJobResultsHTML_Empty(t *testing.T) {
	got := FormatJobResultsHTML(context.Background(), nil, &fakeGen{}, testLogger)
	if got != noResultsHTML {
		t.Fatalf("got %q", got)
	}
}

func TestFormatJobResultsHTML_SkipsListingsWithoutLinks(t *testing.T) {
	results := []job.SearchResult{
		{Metadata: job.Metadata{Title: "No Link Role"}},
		{
			Content:  "Description:\nReal work.\n\nURL: https://x.example",
			Metadata: job.Metadata{Title: "Linked Role", Company: "Acme", URL: "https://x.example"},
		},
	}

	got := FormatJobResultsHTML(context.Background(), results, &fakeGen{reply: "Real work summary."}, testLogger)
	if strings.Contains(got, "No Link Role") {
		t.Fatal("listing without a link should be skipped")
	}
	if !strings.Contains(got, "Linked Role") {
		t.Fatalf("linked listing missing:\n%s", got)
	}
	if !strings.Contains(got, `<td>1</td>`) {
		t.Fatal("numbering should restart from surviving listings")
	}
}

func TestFormatJobResultsHTML_AllWithoutLinks(t *testing.T) {
	results := []job.SearchResult{{Metadata: job.Metadata{Title: "Role"}}}
	got := FormatJobResultsHTML(context.Background(), results, &fakeGen{}, testLogger)
	if got != noLinksHTML {
		t.Fatalf("got %q", got)
	}
}

func TestFormatJobResultsHTML_SummaryFallbackOnError(t *testing.T) {
	long := strings.Repeat("very long description text ", 20)
	results := []job.SearchResult{{
		Content:  "Description:\n" + long,
		Metadata: job.Metadata{Title: "Role", Company: "Acme", URL: "https://x.example"},
	}}

	got := FormatJobResultsHTML(context.Background(), results, &fakeGen{err: errors.New("model down")}, testLogger)
	if !strings.Contains(got, "...") {
		t.Fatalf("expected truncated fallback summary:\n%s", got)
	}
	if !strings.Contains(got, "very long description") {
		t.Fatalf("fallback should reuse the description text:\n%s", got)
	}
}

func TestFormatJobResultsHTML_MissingFieldsRenderDash(t *testing.T) {
	results := []job.SearchResult{{
		Content:  "Description:\nWork.",
		Metadata: job.Metadata{URL: "https://x.example"},
	}}
	got := FormatJobResultsHTML(context.Background(), results, &fakeGen{reply: "Work."}, testLogger)
	if strings.Count(got, "—") < 3 {
		t.Fatalf("missing fields should render as dashes:\n%s", got)
	}
}

func TestExtractDescription(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"after label, cut at blank line",
			"Title: X\nSkills: Go\n\nDescription:\nFirst paragraph here.\n\nURL: https://x",
			"First paragraph here.",
		},
		{
			"no label",
			"Just a raw chunk of text.",
			"Just a raw chunk of text.",
		},
		{
			"label with no blank line",
			"Description:\nOnly paragraph.",
			"Only paragraph.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractDescription(tt.in); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

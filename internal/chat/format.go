package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pathfinder-ai/career-backend/internal/job"
)

const (
	noResultsHTML = "<p>No job listings found for your request.</p>"
	noLinksHTML   = "<p>No job listings with usable links were found.</p>"
)

// Generator produces text from a system prompt plus user prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// FormatJobResultsHTML renders search hits as an HTML table with one
// summarized description per listing. Listings without a link are
// skipped. Summaries come from the model; a failed summary degrades to a
// truncated description rather than failing the whole response.
func FormatJobResultsHTML(ctx context.Context, results []job.SearchResult, gen Generator, logger *slog.Logger) string {
	if len(results) == 0 {
		return noResultsHTML
	}

	var rows, descriptions []string
	for _, result := range results {
		url := strings.TrimSpace(result.Metadata.URL)
		if url == "" {
			continue
		}

		n := len(rows) + 1
		link := fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener noreferrer">Apply</a>`, url)
		rows = append(rows, fmt.Sprintf(`
        <tr>
          <td>%d</td>
          <td>%s</td>
          <td>%s</td>
          <td>%s</td>
          <td>%s</td>
        </tr>`,
			n,
			orDash(result.Metadata.Title),
			orDash(result.Metadata.Company),
			orDash(result.Metadata.Location),
			link))

		summary := summarizeDescription(ctx, extractDescription(result.Content), gen, logger)
		descriptions = append(descriptions, fmt.Sprintf("<li><strong>%d.</strong> %s</li>", n, summary))
	}

	if len(rows) == 0 {
		return noLinksHTML
	}

	return fmt.Sprintf(`
    <p>Here are some job recommendations based on your request:</p>

    <table border="1" cellspacing="0" cellpadding="6" style="border-collapse: collapse; width: 100%%;">
      <thead>
        <tr style="background-color: #f3f3f3;">
          <th>#</th>
          <th>Title</th>
          <th>Company</th>
          <th>Location</th>
          <th>Link</th>
        </tr>
      </thead>
      <tbody>%s
      </tbody>
    </table>

    <p><strong>Descriptions:</strong></p>
    <ul>
      %s
    </ul>`,
		strings.Join(rows, ""),
		strings.Join(descriptions, "\n      "))
}

// extractDescription pulls the free-form description out of a chunk: the
// text after the "Description:" label, cut at the first blank line.
func extractDescription(content string) string {
	content = strings.TrimSpace(content)
	if idx := strings.Index(content, "Description:"); idx != -1 {
		content = strings.TrimSpace(content[idx+len("Description:"):])
	}
	if idx := strings.Index(content, "\n\n"); idx != -1 {
		content = content[:idx]
	}
	return strings.TrimSpace(content)
}

func summarizeDescription(ctx context.Context, text string, gen Generator, logger *slog.Logger) string {
	prompt := "Summarize the following job description in one short sentence:\n\n" + text
	summary, err := gen.Generate(ctx, "", prompt)
	if err != nil {
		logger.Warn("job description summary failed", "error", err)
		return truncate(text, 150) + "..."
	}
	return strings.TrimSpace(summary)
}

func orDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "—"
	}
	return v
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

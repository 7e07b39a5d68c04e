package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/suykerbuyk/recap/internal/report"
)

// NoteData holds everything needed to render a recap note.
type NoteData struct {
	ID        string
	Title     string // defaults to "Recap"
	Model     string
	CreatedAt time.Time
	Remaining int // -1 omits the quota line
	Report    report.StructuredReport
}

// RecapNote renders a Markdown document with optional frontmatter followed
// by one section per report field. Empty sections are omitted.
func RecapNote(d NoteData) string {
	var b strings.Builder

	if d.ID != "" || !d.CreatedAt.IsZero() || d.Model != "" {
		b.WriteString("---\n")
		if d.ID != "" {
			b.WriteString(fmt.Sprintf("id: \"%s\"\n", d.ID))
		}
		if !d.CreatedAt.IsZero() {
			b.WriteString(fmt.Sprintf("date: %s\n", d.CreatedAt.Format("2006-01-02 15:04")))
		}
		if d.Model != "" {
			b.WriteString(fmt.Sprintf("model: %s\n", d.Model))
		}
		b.WriteString("type: recap\n")
		b.WriteString("---\n\n")
	}

	title := d.Title
	if title == "" {
		title = "Recap"
	}
	b.WriteString(fmt.Sprintf("# %s\n\n", title))

	r := d.Report
	if s := strings.TrimSpace(r.ExecutiveSummary); s != "" {
		b.WriteString("## Executive Summary\n\n")
		b.WriteString(s)
		b.WriteString("\n\n")
	}
	writeList(&b, "Key Highlights", r.KeyHighlights)
	writeList(&b, "Decisions Taken", r.DecisionsTaken)
	writeList(&b, "Risks & Blockers", r.RisksAndBlockers)

	if len(r.ActionItems) > 0 {
		b.WriteString("## Action Items\n\n")
		for _, item := range r.ActionItems {
			b.WriteString("- [ ] ")
			b.WriteString(item.Task)
			if meta := actionMeta(item); meta != "" {
				b.WriteString(" (" + meta + ")")
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	writeList(&b, "Next Steps", r.NextSteps)

	if r.IsEmpty() {
		b.WriteString("_No content._\n\n")
	}
	if d.Remaining >= 0 {
		b.WriteString(fmt.Sprintf("_%s remaining today._\n", plural(d.Remaining, "generation")))
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("## " + heading + "\n\n")
	for _, item := range items {
		b.WriteString("- " + item + "\n")
	}
	b.WriteString("\n")
}

func actionMeta(item report.ActionItem) string {
	var parts []string
	if item.Owner != "" {
		parts = append(parts, "owner: "+item.Owner)
	}
	if item.Priority != "" {
		parts = append(parts, "priority: "+item.Priority)
	}
	return strings.Join(parts, ", ")
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// HistoryLine renders a one-line summary for recap listings.
func HistoryLine(id string, createdAt time.Time, summary string) string {
	summary = strings.Join(strings.Fields(summary), " ")
	if r := []rune(summary); len(r) > 72 {
		summary = string(r[:71]) + "…"
	}
	if summary == "" {
		summary = "(no summary)"
	}
	return fmt.Sprintf("%s  %s  %s", createdAt.Format("2006-01-02 15:04"), id, summary)
}

package help

import (
	"fmt"
	"strings"
	"time"
)

const manual = "Recap Manual"

// FormatRoff renders a subcommand's man page. An empty date means today;
// pass a fixed date for reproducible output.
func FormatRoff(c Command, date string) string {
	var b strings.Builder
	writeRoffHead(&b, c.ManName(), c.Synopsis, date)
	b.WriteString(".SH SYNOPSIS\n.B " + escapeRoff(c.Usage) + "\n")
	writeRoffSections(&b, commandSections(c))
	writeSeeAlso(&b, c.SeeAlso)
	return b.String()
}

// FormatRoffTopLevel renders recap.1: the command table, global flags,
// environment and files, with references to every subcommand page.
func FormatRoffTopLevel(top Command, subs []Command, date string) string {
	var b strings.Builder
	writeRoffHead(&b, top.ManName(), top.Synopsis, date)
	b.WriteString(".SH SYNOPSIS\n.B recap\n.I command\n.RI [ options ]\n")
	if top.Description != "" {
		b.WriteString(".SH DESCRIPTION\n")
		writeRoffParagraphs(&b, top.Description)
	}
	writeRoffSections(&b, topSections(subs))

	refs := make([]string, len(subs))
	for i, s := range subs {
		refs[i] = s.ManName() + "(1)"
	}
	writeSeeAlso(&b, refs)
	return b.String()
}

func writeRoffHead(b *strings.Builder, name, synopsis, date string) {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	fmt.Fprintf(b, ".TH %s 1 %q %q %q\n", strings.ToUpper(name), date, "recap "+Version, manual)
	fmt.Fprintf(b, ".SH NAME\n%s \\- %s\n", name, escapeRoff(synopsis))
}

func writeRoffSections(b *strings.Builder, sections []section) {
	for _, s := range sections {
		b.WriteString(".SH " + s.man + "\n")
		switch {
		case s.text != "":
			writeRoffParagraphs(b, s.text)
		case len(s.literal) > 0:
			b.WriteString(".nf\n")
			for _, l := range s.literal {
				b.WriteString(escapeRoff(l) + "\n")
			}
			b.WriteString(".fi\n")
		default:
			for _, e := range s.entries {
				fmt.Fprintf(b, ".TP\n.B \"%s\"\n%s\n", escapeRoff(e.term), escapeRoff(e.desc))
			}
		}
	}
}

func writeSeeAlso(b *strings.Builder, refs []string) {
	if len(refs) == 0 {
		return
	}
	b.WriteString(".SH SEE ALSO\n")
	out := make([]string, len(refs))
	for i, ref := range refs {
		out[i] = formatManRef(ref)
	}
	b.WriteString(strings.Join(out, ",\n") + "\n")
}

// escapeRoff escapes backslashes, line-leading dots and hyphens.
func escapeRoff(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "\n.", "\n\\&.")
	if strings.HasPrefix(s, ".") {
		s = "\\&" + s
	}
	return strings.ReplaceAll(s, "-", "\\-")
}

// writeRoffParagraphs turns blank lines into .PP breaks. Indented lines
// (route tables, subcommand lists) are kept verbatim in .nf blocks.
func writeRoffParagraphs(b *strings.Builder, text string) {
	prevBlank, inLiteral := false, false
	for _, line := range strings.Split(text, "\n") {
		literal := strings.HasPrefix(line, "  ")
		if inLiteral && !literal {
			b.WriteString(".fi\n")
			inLiteral = false
		}
		if strings.TrimSpace(line) == "" {
			if !prevBlank {
				b.WriteString(".PP\n")
			}
			prevBlank = true
			continue
		}
		prevBlank = false
		if literal && !inLiteral {
			b.WriteString(".nf\n")
			inLiteral = true
		}
		b.WriteString(escapeRoff(line) + "\n")
	}
	if inLiteral {
		b.WriteString(".fi\n")
	}
}

// formatManRef turns "recap-init(1)" into ".BR recap\-init (1)".
func formatManRef(ref string) string {
	if i := strings.Index(ref, "("); i >= 0 {
		return fmt.Sprintf(".BR %s %s", escapeRoff(ref[:i]), ref[i:])
	}
	return ".B " + escapeRoff(ref)
}

package help

import (
	"fmt"
	"strings"
)

// FormatTerminal renders a subcommand's --help text.
func FormatTerminal(c Command) string {
	blocks := []string{
		fmt.Sprintf("recap %s \u2014 %s", c.Name, c.Synopsis),
		"Usage: " + c.Usage,
	}
	blocks = append(blocks, terminalBlocks(commandSections(c))...)
	return strings.Join(blocks, "\n\n") + "\n"
}

// FormatUsage renders the top-level help (recap --help, recap help).
func FormatUsage(top Command, subs []Command) string {
	blocks := []string{fmt.Sprintf("recap %s \u2014 %s", Version, top.Synopsis)}
	blocks = append(blocks, terminalBlocks(topSections(subs))...)
	return strings.Join(blocks, "\n\n") + "\n"
}

// terminalBlocks renders each section as one block. Entry descriptions are
// aligned per section, three spaces past the widest term.
func terminalBlocks(sections []section) []string {
	blocks := make([]string, 0, len(sections))
	for _, s := range sections {
		var lines []string
		if s.title != "" {
			lines = append(lines, s.title+":")
		}
		switch {
		case s.text != "":
			lines = append(lines, s.text)
		case len(s.literal) > 0:
			for _, l := range s.literal {
				lines = append(lines, "  "+l)
			}
		default:
			width := 0
			for _, e := range s.entries {
				if len(e.term) > width {
					width = len(e.term)
				}
			}
			for _, e := range s.entries {
				lines = append(lines, "  "+e.term+strings.Repeat(" ", width-len(e.term)+3)+e.desc)
			}
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return blocks
}

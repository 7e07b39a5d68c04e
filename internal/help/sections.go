package help

// entry is one term/description row.
type entry struct {
	term string
	desc string
}

// section is one block of a help page, shared by the terminal and roff
// renderers. Exactly one of entries, text or literal is set.
type section struct {
	title   string // terminal heading; "" prints the body alone
	man     string // roff .SH name
	entries []entry
	text    string
	literal []string
}

func commandSections(c Command) []section {
	var out []section

	if len(c.Args) > 0 {
		out = append(out, section{title: "Arguments", man: "ARGUMENTS", entries: argEntries(c.Args)})
	}

	flags := make([]Flag, 0, len(c.Flags)+len(GlobalFlags))
	flags = append(flags, c.Flags...)
	flags = append(flags, GlobalFlags...)
	out = append(out, section{title: "Flags", man: "OPTIONS", entries: flagEntries(flags)})

	if c.Description != "" {
		out = append(out, section{man: "DESCRIPTION", text: c.Description})
	}
	if len(c.Env) > 0 {
		out = append(out, section{title: "Environment", man: "ENVIRONMENT", entries: envEntries(c.Env)})
	}
	if len(c.Examples) > 0 {
		out = append(out, section{title: "Examples", man: "EXAMPLES", literal: c.Examples})
	}
	return out
}

func topSections(subs []Command) []section {
	commands := make([]entry, 0, len(subs)+1)
	for _, s := range subs {
		commands = append(commands, entry{s.tableUsage(), s.Brief})
	}
	commands = append(commands, entry{"recap help [command]", "Show help for a command"})

	return []section{
		{title: "Usage", man: "COMMANDS", entries: commands},
		{title: "Global flags", man: "OPTIONS", entries: flagEntries(GlobalFlags)},
		{title: "Environment", man: "ENVIRONMENT", entries: envEntries(Environment)},
		{title: "Files", man: "FILES", entries: argEntries(Files)},
	}
}

func argEntries(args []Arg) []entry {
	out := make([]entry, len(args))
	for i, a := range args {
		term := a.Name
		if a.Optional {
			term = "[" + term + "]"
		}
		out[i] = entry{term, a.Desc}
	}
	return out
}

func flagEntries(flags []Flag) []entry {
	out := make([]entry, len(flags))
	for i, f := range flags {
		out[i] = entry{f.Name, f.Desc}
	}
	return out
}

func envEntries(vars []EnvVar) []entry {
	out := make([]entry, len(vars))
	for i, v := range vars {
		out[i] = entry{v.Name, v.Desc}
	}
	return out
}

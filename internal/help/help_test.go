package help

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/suykerbuyk/recap/internal/config"
)

// expectedTerminal maps command name to exact expected terminal output.
var expectedTerminal = map[string]string{
	"generate": "recap generate \u2014 generate a recap from notes\n" +
		"\n" +
		"Usage: recap generate [file] [--user <id>] [--json]\n" +
		"\n" +
		"Arguments:\n" +
		"  [file]   Notes to summarize (default: stdin)\n" +
		"\n" +
		"Flags:\n" +
		"  --user <id>       User the quota and history belong to (default: $USER)\n" +
		"  --json            Print the report as JSON instead of Markdown\n" +
		"  --config <path>   Config file (default: ~/.config/recap/config.toml)\n" +
		"\n" +
		"Runs one generation against the configured model and prints the\n" +
		"report. The attempt counts against the user's daily allotment exactly\n" +
		"as an API request would, and the result is stored in the history.\n" +
		"\n" +
		"Environment:\n" +
		"  GROQ_API_KEY                  Model API key (variable named by [model] api_key_env)\n" +
		"  RECAP_QUOTA_DAILY_ALLOTMENT   Generations per user per day (default: 3)\n" +
		"\n" +
		"Examples:\n" +
		"  recap generate standup.txt\n" +
		"  pbpaste | recap generate --json\n",

	"usage": "recap usage \u2014 show today's quota\n" +
		"\n" +
		"Usage: recap usage [--user <id>]\n" +
		"\n" +
		"Flags:\n" +
		"  --user <id>       User the quota and history belong to (default: $USER)\n" +
		"  --config <path>   Config file (default: ~/.config/recap/config.toml)\n" +
		"\n" +
		"Environment:\n" +
		"  RECAP_QUOTA_DAILY_ALLOTMENT   Generations per user per day (default: 3)\n" +
		"  RECAP_TIMEZONE                Zone whose midnight resets the allotment (default: Local)\n",

	"version": "recap version \u2014 print version\n" +
		"\n" +
		"Usage: recap version\n" +
		"\n" +
		"Flags:\n" +
		"  --config <path>   Config file (default: ~/.config/recap/config.toml)\n",
}

func TestFormatTerminal(t *testing.T) {
	for name, expected := range expectedTerminal {
		t.Run(name, func(t *testing.T) {
			cmd, ok := Lookup(name)
			if !ok {
				t.Fatalf("no command %q", name)
			}
			got := FormatTerminal(cmd)
			if got != expected {
				t.Errorf("FormatTerminal(%q) mismatch.\n--- expected ---\n%s\n--- got ---\n%s\n--- diff ---\n%s",
					name, quote(expected), quote(got), diff(expected, got))
			}
		})
	}
}

func TestFormatTerminal_AllCommands(t *testing.T) {
	for _, cmd := range Subcommands {
		t.Run(cmd.Name, func(t *testing.T) {
			out := FormatTerminal(cmd)
			prefix := fmt.Sprintf("recap %s \u2014 %s\n", cmd.Name, cmd.Synopsis)
			if !strings.HasPrefix(out, prefix) {
				t.Errorf("header mismatch: %q", out)
			}
			if !strings.Contains(out, "Usage: "+cmd.Usage) {
				t.Errorf("missing usage line")
			}
			if cmd.Description != "" && !strings.Contains(out, cmd.Description) {
				t.Errorf("missing description")
			}
			for _, f := range append(cmd.Flags, GlobalFlags...) {
				if !strings.Contains(out, "  "+f.Name+" ") {
					t.Errorf("flag %q not on its own line", f.Name)
				}
			}
			for _, v := range cmd.Env {
				if !strings.Contains(out, "  "+v.Name+" ") {
					t.Errorf("env var %q not listed", v.Name)
				}
			}
		})
	}
}

func TestFormatUsage(t *testing.T) {
	got := FormatUsage(TopLevel, Subcommands)

	if !strings.HasPrefix(got, fmt.Sprintf("recap %s \u2014 structured reports from free-text notes\n", Version)) {
		t.Errorf("header mismatch: %q", got)
	}
	// Usage column is padded to the widest entry, "recap serve [--addr <host:port>]".
	wantLines := []string{
		"  recap serve [--addr <host:port>]   Run the HTTP API server\n",
		"  recap check" + strings.Repeat(" ", 24) + "Validate config and environment health\n",
		"  recap help [command]" + strings.Repeat(" ", 15) + "Show help for a command\n",
	}
	for _, line := range wantLines {
		if !strings.Contains(got, line) {
			t.Errorf("missing line %q in:\n%s", line, got)
		}
	}
	for _, heading := range []string{"\nGlobal flags:\n", "\nEnvironment:\n", "\nFiles:\n"} {
		if !strings.Contains(got, heading) {
			t.Errorf("missing section %q", heading)
		}
	}
	for _, v := range Environment {
		if !strings.Contains(got, "  "+v.Name+" ") {
			t.Errorf("env var %q not listed", v.Name)
		}
	}
	if !strings.Contains(got, "  --config <path>   Config file") {
		t.Error("global --config flag not listed")
	}
}

// Every documented variable must be one the config loader actually reads.
func TestEnvironmentMatchesConfig(t *testing.T) {
	known := map[string]bool{}
	collectEnvTags(reflect.TypeOf(config.Config{}), known)
	defaults := config.DefaultConfig()
	known[defaults.Model.APIKeyEnv] = true
	known[defaults.Auth.JWTSecretEnv] = true

	for _, v := range Environment {
		if !known[v.Name] {
			t.Errorf("documented variable %s is not read by config", v.Name)
		}
	}
	for _, c := range Subcommands {
		for _, v := range c.Env {
			if !known[v.Name] {
				t.Errorf("%s documents %s, which config does not read", c.Name, v.Name)
			}
		}
	}
}

func collectEnvTags(typ reflect.Type, into map[string]bool) {
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if name := f.Tag.Get("env"); name != "" {
			into[strings.Split(name, ",")[0]] = true
		}
		if f.Type.Kind() == reflect.Struct {
			collectEnvTags(f.Type, into)
		}
	}
}

func TestRegistryCompleteness(t *testing.T) {
	expectedNames := []string{"serve", "generate", "usage", "history", "init", "check", "version"}
	if len(Subcommands) != len(expectedNames) {
		t.Fatalf("expected %d subcommands, got %d", len(expectedNames), len(Subcommands))
	}
	for i, name := range expectedNames {
		if Subcommands[i].Name != name {
			t.Errorf("Subcommands[%d].Name = %q, want %q", i, Subcommands[i].Name, name)
		}
		if Subcommands[i].Synopsis == "" {
			t.Errorf("Subcommands[%d] (%s) has empty Synopsis", i, name)
		}
		if Subcommands[i].Usage == "" {
			t.Errorf("Subcommands[%d] (%s) has empty Usage", i, name)
		}
		if Subcommands[i].Brief == "" {
			t.Errorf("Subcommands[%d] (%s) has empty Brief", i, name)
		}
	}
}

func TestLookup(t *testing.T) {
	if c, ok := Lookup("serve"); !ok || c.Name != "serve" {
		t.Errorf("Lookup(serve) = %v, %v", c.Name, ok)
	}
	if _, ok := Lookup("hook"); ok {
		t.Error("Lookup(hook) should fail")
	}
}

func TestManName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"", "recap"},
		{"serve", "recap-serve"},
		{"history show", "recap-history-show"},
	}
	for _, tt := range tests {
		c := Command{Name: tt.name}
		if got := c.ManName(); got != tt.want {
			t.Errorf("Command{Name: %q}.ManName() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestEscapeRoff(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`simple text`, `simple text`},
		{`back\slash`, `back\\slash`},
		{`.leading dot`, `\&.leading dot`},
		{"line1\n.line2", "line1\n\\&.line2"},
		{`--flag`, `\-\-flag`},
		{`a-b`, `a\-b`},
		{`.env`, `\&.env`},
	}
	for _, tt := range tests {
		got := escapeRoff(tt.input)
		if got != tt.want {
			t.Errorf("escapeRoff(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatRoffStructure(t *testing.T) {
	fixedDate := "2026-02-27"

	for _, cmd := range Subcommands {
		t.Run(cmd.Name, func(t *testing.T) {
			out := FormatRoff(cmd, fixedDate)

			for _, section := range []string{".TH", ".SH NAME", ".SH SYNOPSIS"} {
				if !strings.Contains(out, section) {
					t.Errorf("FormatRoff(%q) missing required section %q", cmd.Name, section)
				}
			}
			if !strings.Contains(out, ".TH "+strings.ToUpper(cmd.ManName())) {
				t.Errorf("FormatRoff(%q) .TH should name the page", cmd.Name)
			}
			if !strings.Contains(out, `"Recap Manual"`) {
				t.Errorf("FormatRoff(%q) missing manual title", cmd.Name)
			}
			if cmd.Description != "" && !strings.Contains(out, ".SH DESCRIPTION") {
				t.Errorf("FormatRoff(%q) has Description but missing .SH DESCRIPTION", cmd.Name)
			}
			if !strings.Contains(out, ".SH OPTIONS") || !strings.Contains(out, escapeRoff(configFlag.Name)) {
				t.Errorf("FormatRoff(%q) missing OPTIONS with the global --config flag", cmd.Name)
			}
			if len(cmd.Args) > 0 && !strings.Contains(out, ".SH ARGUMENTS") {
				t.Errorf("FormatRoff(%q) has Args but missing .SH ARGUMENTS", cmd.Name)
			}
			if len(cmd.Env) > 0 && !strings.Contains(out, ".SH ENVIRONMENT") {
				t.Errorf("FormatRoff(%q) has Env but missing .SH ENVIRONMENT", cmd.Name)
			}
			if len(cmd.Examples) > 0 && !strings.Contains(out, ".SH EXAMPLES") {
				t.Errorf("FormatRoff(%q) has Examples but missing .SH EXAMPLES", cmd.Name)
			}
			if len(cmd.SeeAlso) > 0 && !strings.Contains(out, ".SH SEE ALSO") {
				t.Errorf("FormatRoff(%q) has SeeAlso but missing .SH SEE ALSO", cmd.Name)
			}
		})
	}
}

func TestFormatRoffTopLevelStructure(t *testing.T) {
	out := FormatRoffTopLevel(TopLevel, Subcommands, "2026-02-27")

	required := []string{
		".TH RECAP 1",
		".SH NAME",
		".SH SYNOPSIS",
		".SH DESCRIPTION",
		".SH COMMANDS",
		".SH OPTIONS",
		".SH ENVIRONMENT",
		".SH FILES",
		".SH SEE ALSO",
	}
	for _, section := range required {
		if !strings.Contains(out, section) {
			t.Errorf("FormatRoffTopLevel missing section %q", section)
		}
	}
	for _, cmd := range Subcommands {
		if !strings.Contains(out, escapeRoff(cmd.Brief)) {
			t.Errorf("FormatRoffTopLevel missing subcommand brief %q", cmd.Brief)
		}
		if !strings.Contains(out, ".BR "+escapeRoff(cmd.ManName())+" (1)") {
			t.Errorf("FormatRoffTopLevel missing reference to %s", cmd.ManName())
		}
	}
	for _, v := range Environment {
		if !strings.Contains(out, ".TP\n.B \""+escapeRoff(v.Name)+"\"\n") {
			t.Errorf("FormatRoffTopLevel missing env entry %s", v.Name)
		}
	}
}

func TestFormatRoff_IndentedDescriptionIsVerbatim(t *testing.T) {
	out := FormatRoff(CmdServe, "2026-02-27")

	want := ".PP\n.nf\n  GET    /                 liveness text\n"
	if !strings.Contains(out, want) {
		t.Errorf("route table not in a no-fill block:\n%s", out)
	}
	if strings.Count(out, ".nf\n") != strings.Count(out, ".fi\n") {
		t.Errorf("unbalanced .nf/.fi:\n%s", out)
	}
}

// quote shows a string with escape sequences visible.
func quote(s string) string {
	return fmt.Sprintf("%q", s)
}

// diff shows a line-by-line comparison highlighting the first difference.
func diff(expected, got string) string {
	el := strings.Split(expected, "\n")
	gl := strings.Split(got, "\n")
	max := len(el)
	if len(gl) > max {
		max = len(gl)
	}
	var b strings.Builder
	for i := 0; i < max; i++ {
		var e, g string
		if i < len(el) {
			e = el[i]
		}
		if i < len(gl) {
			g = gl[i]
		}
		marker := "  "
		if e != g {
			marker = "! "
		}
		if e != g {
			fmt.Fprintf(&b, "%sline %d:\n  exp: %q\n  got: %q\n", marker, i+1, e, g)
		}
	}
	return b.String()
}

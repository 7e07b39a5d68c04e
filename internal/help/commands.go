package help

import "strings"

// Version is the recap release version, set at build time via -ldflags.
// Defaults to "dev" when built without version injection (e.g. `go run`).
var Version = "dev"

// Flag describes a command-line flag.
type Flag struct {
	Name string // e.g. "--json" or "--user <id>"
	Desc string
}

// Arg describes a positional argument.
type Arg struct {
	Name     string
	Desc     string
	Optional bool
}

// EnvVar describes an environment variable a command reads.
type EnvVar struct {
	Name string
	Desc string
}

// Command describes a recap subcommand (or the top-level binary when Name is "").
type Command struct {
	Name        string   // "serve", "generate", etc; "" for top-level
	Synopsis    string   // one-line description (lowercase, for --help header)
	Brief       string   // short description for usage table (capitalized)
	Usage       string   // full usage line
	TableUsage  string   // shortened usage for the top-level table (if different from Usage)
	Args        []Arg
	Flags       []Flag   // command flags; GlobalFlags are appended when rendering
	Env         []EnvVar // variables this command reads
	Description string   // multi-line prose (stored verbatim)
	Examples    []string // one per line, without leading 2-space indent
	SeeAlso     []string // man page cross-refs, e.g. "recap(1)"
}

func (c Command) tableUsage() string {
	if c.TableUsage != "" {
		return c.TableUsage
	}
	return c.Usage
}

// ManName returns the man page name: "recap" for top-level, "recap-<name>" for subs.
func (c Command) ManName() string {
	if c.Name == "" {
		return "recap"
	}
	return "recap-" + strings.ReplaceAll(c.Name, " ", "-")
}

// TopLevel is the top-level recap command (used by FormatUsage).
var TopLevel = Command{
	Name:     "",
	Synopsis: "structured reports from free-text notes",
	Description: `recap turns free-text meeting notes into a structured report with a
summary, highlights, decisions, risks, action items and next steps, using
an OpenAI-compatible chat model. Each user gets a small daily allotment of
generations, counted when an attempt is admitted.`,
}

var (
	userFlag   = Flag{Name: "--user <id>", Desc: "User the quota and history belong to (default: $USER)"}
	configFlag = Flag{Name: "--config <path>", Desc: "Config file (default: ~/.config/recap/config.toml)"}
)

// GlobalFlags are accepted by every subcommand.
var GlobalFlags = []Flag{configFlag}

var (
	envAPIKey    = EnvVar{Name: "GROQ_API_KEY", Desc: "Model API key (variable named by [model] api_key_env)"}
	envJWTSecret = EnvVar{Name: "RECAP_JWT_SECRET", Desc: "HS256 bearer token secret (variable named by [auth] jwt_secret_env)"}
	envAuthMode  = EnvVar{Name: "RECAP_AUTH_MODE", Desc: "Caller identification: jwt or header"}
	envAllotment = EnvVar{Name: "RECAP_QUOTA_DAILY_ALLOTMENT", Desc: "Generations per user per day (default: 3)"}
	envTimezone  = EnvVar{Name: "RECAP_TIMEZONE", Desc: "Zone whose midnight resets the allotment (default: Local)"}
	envModel     = EnvVar{Name: "RECAP_MODEL", Desc: "Model identifier sent with every request"}
	envDataDir   = EnvVar{Name: "RECAP_DATA_DIR", Desc: "Directory holding recap.db and diagnostics"}
	envLogLevel  = EnvVar{Name: "RECAP_LOG_LEVEL", Desc: "debug, info, warn or error"}
)

// Environment is documented on the top-level page.
var Environment = []EnvVar{
	envAPIKey,
	envJWTSecret,
	envAuthMode,
	envAllotment,
	envTimezone,
	envModel,
	envDataDir,
	envLogLevel,
}

// Files is documented on the top-level page.
var Files = []Arg{
	{Name: "~/.config/recap/config.toml", Desc: "Config file; $XDG_CONFIG_HOME/recap is searched first"},
	{Name: "./.env", Desc: "Extra variables; never overrides the real environment"},
	{Name: "<data_dir>/recap.db", Desc: "Stored recaps and daily usage counters"},
	{Name: "<data_dir>/diagnostics/", Desc: "Redacted model output from rejected generations"},
}

var CmdServe = Command{
	Name:     "serve",
	Synopsis: "run the HTTP API",
	Brief:    "Run the HTTP API server",
	Usage:    "recap serve [--addr <host:port>]",
	Flags: []Flag{
		{Name: "--addr <host:port>", Desc: "Listen address (default: listen_addr from config, :4000)"},
	},
	Env: []EnvVar{envAPIKey, envAuthMode, envJWTSecret, envAllotment},
	Description: `Serves the generation API:

  GET    /                 liveness text
  POST   /api/generate     {"text": "..."} -> structured report
  GET    /api/usage        today's quota for the caller
  GET    /api/recaps       recap history, newest first (?limit=N)
  GET    /api/recaps/:id   one stored recap
  DELETE /api/recaps/:id   delete a stored recap

Callers are identified by an HS256 bearer token whose subject is the
user id ([auth] mode = "jwt"), or by a header set by a trusted proxy
([auth] mode = "header").

The config file is watched while serving: changes to the daily
allotment and the log level apply without a restart.`,
	Examples: []string{
		"recap serve",
		"recap serve --addr 127.0.0.1:8080",
	},
	SeeAlso: []string{"recap(1)", "recap-check(1)", "recap-init(1)"},
}

var CmdGenerate = Command{
	Name:       "generate",
	Synopsis:   "generate a recap from notes",
	Brief:      "Generate a recap from a file or stdin",
	Usage:      "recap generate [file] [--user <id>] [--json]",
	TableUsage: "recap generate [file]",
	Args: []Arg{
		{Name: "file", Desc: "Notes to summarize (default: stdin)", Optional: true},
	},
	Flags: []Flag{
		userFlag,
		{Name: "--json", Desc: "Print the report as JSON instead of Markdown"},
	},
	Env: []EnvVar{envAPIKey, envAllotment},
	Description: `Runs one generation against the configured model and prints the
report. The attempt counts against the user's daily allotment exactly
as an API request would, and the result is stored in the history.`,
	Examples: []string{
		"recap generate standup.txt",
		"pbpaste | recap generate --json",
	},
	SeeAlso: []string{"recap(1)", "recap-history(1)", "recap-usage(1)"},
}

var CmdUsage = Command{
	Name:     "usage",
	Synopsis: "show today's quota",
	Brief:    "Show today's remaining generations",
	Usage:    "recap usage [--user <id>]",
	Flags:    []Flag{userFlag},
	Env:      []EnvVar{envAllotment, envTimezone},
	SeeAlso:  []string{"recap(1)", "recap-generate(1)"},
}

var CmdHistory = Command{
	Name:       "history",
	Synopsis:   "list, show or delete stored recaps",
	Brief:      "List stored recaps, newest first",
	Usage:      "recap history [show <id> | delete <id>] [--user <id>] [--limit <n>]",
	TableUsage: "recap history [show | delete]",
	Flags: []Flag{
		userFlag,
		{Name: "--limit <n>", Desc: "Maximum number of recaps to list (default: 20)"},
	},
	Description: `Without a subcommand, lists the user's recaps newest first.

Subcommands:
  recap history show <id>     Print one recap as Markdown
  recap history delete <id>   Delete one recap`,
	SeeAlso: []string{"recap(1)", "recap-generate(1)"},
}

var CmdInit = Command{
	Name:     "init",
	Synopsis: "write a default config file",
	Brief:    "Write a default config file",
	Usage:    "recap init [--data-dir <path>]",
	Flags: []Flag{
		{Name: "--data-dir <path>", Desc: "Data directory to record in the config"},
	},
	Description: `Writes ~/.config/recap/config.toml with every setting at its default.
An existing config file is left untouched.`,
	SeeAlso: []string{"recap(1)", "recap-check(1)"},
}

var CmdCheck = Command{
	Name:     "check",
	Synopsis: "validate config and environment health",
	Brief:    "Validate config and environment health",
	Usage:    "recap check",
	Env:      []EnvVar{envAPIKey, envJWTSecret},
	Description: `Runs diagnostic checks: config file, model settings, API key, auth
secret, timezone, data directory, database and diagnostics archive.
Exits with status 1 if any check fails.`,
	SeeAlso: []string{"recap(1)", "recap-init(1)"},
}

var CmdVersion = Command{
	Name:     "version",
	Synopsis: "print version",
	Brief:    "Print version",
	Usage:    "recap version",
	SeeAlso:  []string{"recap(1)"},
}

// Subcommands is the ordered list of all subcommands.
var Subcommands = []Command{
	CmdServe,
	CmdGenerate,
	CmdUsage,
	CmdHistory,
	CmdInit,
	CmdCheck,
	CmdVersion,
}

// Lookup returns the subcommand with the given name.
func Lookup(name string) (Command, bool) {
	for _, c := range Subcommands {
		if c.Name == name {
			return c, true
		}
	}
	return Command{}, false
}

/*
main.go - Application entry point

PURPOSE:
  Command-line front end of the attendance engine. Loads the .env file and
  the rule set, builds the process logger and dispatches to a command.

COMMANDS:
  serve     HTTP API with optional inbox scanning
  process   Offline pipeline: punch log (+ roster) to payroll reports
  calc      Evaluate a single punch and print its metrics
  rules     Print the default rule set JSON

ENVIRONMENT:
  Every flag can be set from the environment (see --help), and a .env file
  in the working directory is loaded first when present:
    ATTENDANCE_RULES, ATTENDANCE_LOG_DIR, ATTENDANCE_DEBUG,
    ATTENDANCE_PORT, ATTENDANCE_DB, ATTENDANCE_INBOX,
    ATTENDANCE_SCAN_INTERVAL, ATTENDANCE_OUT, ATTENDANCE_DEFAULT_LOCATION

EXAMPLES:
  # Serve on :8080 with a file database and an inbox
  attendance serve --db=./data/attendance.db --inbox=./inbox

  # Process one month offline
  attendance process --log="2025년 9월.txt" --roster=roster.xlsx --out=./out

  # Evaluate one punch
  attendance calc --date=2025-09-01 --in=08:00 --out=22:00

SEE ALSO:
  - commands.go: Command implementations
  - api/server.go: Router configuration
*/
package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/warp/attendance-engine/logging"
)

var version = "v0.1.0"

// Globals are shared by every command.
type Globals struct {
	Rules  string `help:"Rule set JSON file. Missing default file falls back to built-in rules." default:"config/rules.json" env:"ATTENDANCE_RULES"`
	LogDir string `help:"Directory for daily log files. Empty logs to stderr only." env:"ATTENDANCE_LOG_DIR"`
	Debug  bool   `help:"Enable debug logging." env:"ATTENDANCE_DEBUG"`
}

var CLI struct {
	Globals
	Version kong.VersionFlag `help:"Print version."`

	Serve      ServeCmd   `cmd:"" help:"Run the HTTP API."`
	Process    ProcessCmd `cmd:"" help:"Compute payroll reports from a punch log."`
	Calc       CalcCmd    `cmd:"" help:"Evaluate one punch."`
	PrintRules RulesCmd   `cmd:"" name:"rules" help:"Print the default rule set."`
}

// Context is passed to every command's Run.
type Context struct {
	Globals *Globals
	Logger  *log.Logger
}

func main() {
	// A missing .env file is fine; variables may come from the environment.
	_ = godotenv.Load()

	ctx := kong.Parse(&CLI,
		kong.Name("attendance"),
		kong.Description("Attendance rule engine: overtime, night work and allowances from punch logs"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)

	logger, closer, err := logging.New(logging.Config{Dir: CLI.LogDir, Debug: CLI.Debug})
	if err != nil {
		log.Fatal("failed to initialize logging", "err", err)
	}

	err = ctx.Run(&Context{Globals: &CLI.Globals, Logger: logger})
	closer.Close()
	if err != nil {
		logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}

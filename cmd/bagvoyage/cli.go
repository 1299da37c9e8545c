package main

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/bagvoyage/bagvoyage/internal/baggage"
	"github.com/bagvoyage/bagvoyage/internal/config"
	"github.com/bagvoyage/bagvoyage/internal/db"
	"github.com/bagvoyage/bagvoyage/internal/errors"
	"github.com/bagvoyage/bagvoyage/internal/ops"
	"github.com/bagvoyage/bagvoyage/internal/scan"
	"github.com/bagvoyage/bagvoyage/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(database *sql.DB, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "bagvoyage",
		Usage:   "Baggage tag check-in and retrieval tracker",
		Version: Version,
		Commands: []*cli.Command{
			sessionCmd(database, cfg),
			tagCmd(database, cfg),
			retrieveCmd(database, cfg),
			scanCmd(database, cfg),
			reportCmd(database),
			exportCmd(database),
			printCmd(database),
			hardwareCmd(database, cfg),
			purgeCmd(database),
			serveCmd(database, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// sessionCmd creates the session command with start/end/list subcommands.
func sessionCmd(database *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Manage work sessions",
		Subcommands: []*cli.Command{
			{
				Name:  "start",
				Usage: "Start (or resume) a session for a day and flight",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Calendar day YYYY-MM-DD (default: today)"},
					&cli.StringFlag{Name: "flight", Aliases: []string{"f"}, Required: true, Usage: "Flight number, e.g. AB123"},
					&cli.StringFlag{Name: "client", Aliases: []string{"c"}, Usage: "Handling client name"},
					&cli.BoolFlag{Name: "remember", Usage: "Persist the active session across restarts"},
				},
				Action: func(c *cli.Context) error {
					output, err := ops.StartSession(database, cfg, ops.StartSessionInput{
						Date:     c.String("date"),
						Flight:   c.String("flight"),
						Client:   c.String("client"),
						Remember: c.Bool("remember"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "end",
				Usage: "End the active session",
				Action: func(c *cli.Context) error {
					output, err := ops.EndSession(database)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "list",
				Usage: "List recent sessions",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum sessions to return"},
				},
				Action: func(c *cli.Context) error {
					output, err := ops.Sessions(database, ops.SessionsInput{Limit: c.Int("limit")})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
		},
	}
}

// tagCmd creates the tag command.
func tagCmd(database *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "tag",
		Usage:     "Record a bag tag as checked in",
		ArgsUsage: "<code>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "session", Aliases: []string{"s"}, Usage: "Session ID (default: active session)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("code argument is required"))
			}
			output, err := ops.Tag(database, cfg, ops.TagInput{
				SessionID: c.String("session"),
				Code:      c.Args().First(),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// retrieveCmd creates the retrieve command.
func retrieveCmd(database *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "retrieve",
		Usage:     "Match a bag tag against check-ins for the same day and flight",
		ArgsUsage: "<code>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "session", Aliases: []string{"s"}, Usage: "Session ID (default: active session)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("code argument is required"))
			}
			output, err := ops.Retrieve(database, cfg, ops.RetrieveInput{
				SessionID: c.String("session"),
				Code:      c.Args().First(),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// scanCmd creates the interactive scan command. Codes arrive one per line
// on stdin (a wedge-mode hardware scanner types exactly that) and are routed
// through the arbiter, so duplicate suppression and the blocking match
// confirmation behave as they do in the app.
func scanCmd(database *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Interactively scan codes from stdin",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "tag", Usage: "Scan mode: tag|retrieve"},
			&cli.StringFlag{Name: "session", Aliases: []string{"s"}, Usage: "Session ID (default: active session)"},
		},
		Action: func(c *cli.Context) error {
			var mode scan.Mode
			switch c.String("mode") {
			case "tag":
				mode = scan.ModeTag
			case "retrieve":
				mode = scan.ModeRetrieve
			default:
				return outputError(errors.NewInvalidRequest("mode must be \"tag\" or \"retrieve\""))
			}

			session, err := resolveCLISession(database, c.String("session"))
			if err != nil {
				return outputError(err)
			}

			presenter := &terminalPresenter{out: os.Stdout}
			arbiter := scan.NewArbiter(scan.ArbiterConfig{
				DuplicateWindow: cfg.DuplicateWindow(),
				Recorder:        &scan.StoreRecorder{DB: database, Cfg: cfg},
				Presenter:       presenter,
				StopScanning:    func() { presenter.paused = true },
			})
			arbiter.SetSession(*session)
			arbiter.SetMode(mode)

			fmt.Printf("Scanning %s for %s %s (Ctrl-D to finish)\n", mode, session.Date, session.Flight)

			in := bufio.NewScanner(os.Stdin)
			for in.Scan() {
				line := strings.TrimSpace(in.Text())
				if line == "" {
					if presenter.paused {
						presenter.paused = false
						arbiter.Continue()
						fmt.Println("Resumed.")
					}
					continue
				}
				arbiter.OnScan(line)
				if presenter.paused {
					fmt.Println("Press Enter to continue scanning.")
				}
			}
			return in.Err()
		},
	}
}

// terminalPresenter renders arbiter feedback as terminal output.
type terminalPresenter struct {
	out    *os.File
	paused bool
}

func (p *terminalPresenter) Haptic([]int) {}

func (p *terminalPresenter) SavedTick() {}

func (p *terminalPresenter) Toast(msg string) {
	fmt.Fprintln(p.out, msg)
}

func (p *terminalPresenter) ShowMatch(code string) {
	fmt.Fprintf(p.out, "MATCH %s\n", code)
}

func (p *terminalPresenter) ShowUnmatched(code string) {
	fmt.Fprintf(p.out, "NO MATCH %s\n", code)
}

// resolveCLISession loads an explicit session or falls back to the active one.
func resolveCLISession(database *sql.DB, id string) (*baggage.Session, error) {
	if id != "" {
		return db.GetSession(database, id)
	}
	session, err := ops.ActiveSession(database)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errors.NewNoSession()
	}
	return session, nil
}

// reportCmd creates the report command.
func reportCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "List recorded scans with counters",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Filter by calendar day"},
			&cli.StringFlag{Name: "flight", Aliases: []string{"f"}, Usage: "Filter by flight number"},
			&cli.StringFlag{Name: "client", Aliases: []string{"c"}, Usage: "Filter by handling client"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Report(database, ops.ReportInput{
				Date:   optFlag(c, "date"),
				Flight: optFlag(c, "flight"),
				Client: optFlag(c, "client"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export scan records to a CSV file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.bagvoyage/exports/<derived name>.csv)"},
			&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Filter by calendar day"},
			&cli.StringFlag{Name: "flight", Aliases: []string{"f"}, Usage: "Filter by flight number"},
			&cli.StringFlag{Name: "client", Aliases: []string{"c"}, Usage: "Filter by handling client"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(database, ops.ExportInput{
				Path:   c.String("path"),
				Date:   optFlag(c, "date"),
				Flight: optFlag(c, "flight"),
				Client: optFlag(c, "client"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// printCmd creates the print command.
func printCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "print",
		Usage: "Render the filtered report as printable HTML on stdout",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Filter by calendar day"},
			&cli.StringFlag{Name: "flight", Aliases: []string{"f"}, Usage: "Filter by flight number"},
			&cli.StringFlag{Name: "client", Aliases: []string{"c"}, Usage: "Filter by handling client"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Print(database, ops.PrintInput{
				Date:   optFlag(c, "date"),
				Flight: optFlag(c, "flight"),
				Client: optFlag(c, "client"),
			})
			if err != nil {
				return outputError(err)
			}
			fmt.Println(output.HTML)
			return nil
		},
	}
}

// hardwareCmd creates the hardware command.
func hardwareCmd(database *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "hardware",
		Usage:     "Read or set the hardware-scanner input flag",
		ArgsUsage: "[on|off]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "signature", Usage: "Device signature for auto-detection"},
		},
		Action: func(c *cli.Context) error {
			input := ops.HardwareInput{DeviceSignature: c.String("signature")}
			if c.NArg() > 0 {
				switch c.Args().First() {
				case "on":
					enable := true
					input.Enable = &enable
				case "off":
					enable := false
					input.Enable = &enable
				default:
					return outputError(errors.NewInvalidRequest("argument must be \"on\" or \"off\""))
				}
			}

			output, err := ops.Hardware(database, cfg, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// purgeCmd creates the purge command.
func purgeCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Permanently delete stale sessions and their records",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "older-than", Required: true, Usage: "Purge sessions unused for N days (e.g., 30d)"},
		},
		Action: func(c *cli.Context) error {
			days, err := parseDuration(c.String("older-than"))
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}

			output, err := ops.Purge(database, ops.PurgeInput{OlderThanDays: days})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(database *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the report HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Usage: "Bind address (default: config web_bind)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Port (default: config web_port)"},
		},
		Action: func(c *cli.Context) error {
			serveCfg := *cfg
			if bind := c.String("bind"); bind != "" {
				serveCfg.WebBind = bind
			}
			if port := c.Int("port"); port > 0 {
				serveCfg.WebPort = port
			}

			srv := web.NewServer(database, &serveCfg, Version)
			if err := web.Run(srv); err != nil {
				return outputError(err)
			}
			return nil
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if bagErr, ok := err.(*errors.BagError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", bagErr.Code, bagErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// optFlag returns a pointer to a string flag value if set and non-empty.
func optFlag(c *cli.Context, name string) *string {
	v := c.String(name)
	if v == "" {
		return nil
	}
	return &v
}

// parseDuration parses "30d" format to days.
func parseDuration(s string) (int, error) {
	if numStr, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		if days < 0 {
			return 0, fmt.Errorf("duration must be non-negative")
		}
		return days, nil
	}
	return 0, fmt.Errorf("duration must end with 'd' (days), e.g., 30d")
}

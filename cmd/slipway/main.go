package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dikkadev/slipway/pkg/config"
	"github.com/dikkadev/slipway/pkg/history"
	"github.com/dikkadev/slipway/pkg/logging"
	"github.com/dikkadev/slipway/pkg/shortcut"
	"github.com/dikkadev/slipway/pkg/tui"
	"github.com/dikkadev/slipway/pkg/updater"
)

const usage = `Slipway: keep an installed application current and launch it

Usage:
  slipway [command] [flags]

Running slipway without a command opens the update screen and starts the
automatic flow: check, update if needed, launch.

Commands:
  check       Check for an update without installing it
  update      Run one update cycle without opening the screen
  launch      Start the installed application without checking
  history     Show recent update cycles
  shortcut    Create an application-menu shortcut for slipway
  configure   Change slipway settings

Common Flags:
  -root       Anchor directory (defaults to the slipway executable's own)
  -verbose    Enable debug logging

Use "slipway [command] --help" for more information about a command.`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) > 0 && (args[0] == "--help" || args[0] == "-h" || args[0] == "help") {
		fmt.Println(usage)
		return nil
	}

	cmd := ""
	cmdArgs := args
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd = args[0]
		cmdArgs = args[1:]
	}

	switch cmd {
	case "":
		return runScreen(cmdArgs)
	case "check":
		return runCheck(cmdArgs)
	case "update":
		return runUpdate(cmdArgs)
	case "launch":
		return runLaunch(cmdArgs)
	case "history":
		return runHistory(cmdArgs)
	case "shortcut":
		return runShortcut(cmdArgs)
	case "configure":
		return runConfigure(cmdArgs)
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

type commonFlags struct {
	root    string
	verbose bool
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	f := &commonFlags{}
	fs.StringVar(&f.root, "root", "", "Anchor directory (defaults to the executable's own)")
	fs.BoolVar(&f.verbose, "verbose", false, "Enable debug logging")
	return f
}

// setup loads config, prepares directories and logging, and opens the cycle
// journal. The returned cleanup closes the journal.
func setup(f *commonFlags, logOutput io.Writer) (*config.Config, history.Store, func(), error) {
	cfg, err := config.Load(f.root)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	logging.Configure(logging.Options{Output: logOutput, Verbose: f.verbose})

	paths := cfg.GetPaths()
	journal, err := history.NewLibSQL("file:" + paths.HistoryDB)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := journal.Initialize(context.Background()); err != nil {
		journal.Close()
		return nil, nil, nil, fmt.Errorf("failed to initialize history database: %w", err)
	}

	return cfg, journal, func() { journal.Close() }, nil
}

// logFile opens the cycle log used when no screen is attached.
func logFile(cfg *config.Config) io.Writer {
	f, err := os.OpenFile(cfg.GetPaths().LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return os.Stderr
	}
	return f
}

func runScreen(args []string) error {
	fs := flag.NewFlagSet("slipway", flag.ExitOnError)
	f := addCommonFlags(fs)
	noLaunch := fs.Bool("no-launch", false, "Update without starting the application")
	headless := fs.Bool("headless", false, "Run the automatic flow without the screen")
	fs.Parse(args)

	if *headless {
		return runAutoHeadless(f, *noLaunch)
	}

	// The terminal belongs to the screen, so cycle logs go to the file
	// under the install root.
	cfg, journal, cleanup, err := setupWithCycleLog(f)
	if err != nil {
		return err
	}
	defer cleanup()

	relay := tui.NewRelay()
	orch := updater.New(cfg, updater.Options{
		Journal:  journal,
		Events:   relay.Events(),
		NoLaunch: *noLaunch,
	})

	return tui.Run(context.Background(), orch, relay)
}

func runAutoHeadless(f *commonFlags, noLaunch bool) error {
	cfg, journal, cleanup, err := setupWithCycleLog(f)
	if err != nil {
		return err
	}
	defer cleanup()

	orch := updater.New(cfg, updater.Options{
		Journal:  journal,
		Events:   printEvents(),
		NoLaunch: noLaunch,
	})
	return orch.RunAuto(context.Background())
}

func setupWithCycleLog(f *commonFlags) (*config.Config, history.Store, func(), error) {
	// Peek at the config first so the log file lands under the right root.
	cfg, err := config.Load(f.root)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return setup(f, logFile(cfg))
}

// printEvents reports cycle progress on stdout for scripted runs.
func printEvents() updater.Events {
	lastPercent := -1.0
	return updater.Events{
		OnStatus: func(m string) { fmt.Println(m) },
		OnAlert:  func(m string) { fmt.Fprintln(os.Stderr, m) },
		OnDownloadProgress: func(p float64) {
			// Only whole-step changes, to keep scripted output readable.
			if p-lastPercent >= 10 || p == 100 || p == 0 {
				fmt.Printf("  downloading: %.0f%%\n", p)
				lastPercent = p
			}
		},
	}
}

func runCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: slipway check [flags]

Fetch the remote version and compare with the installed one. Nothing is
downloaded or installed.

Flags:
  -root      Anchor directory
  -verbose   Enable debug logging
`)
	}
	f := addCommonFlags(fs)
	fs.Parse(args)

	cfg, journal, cleanup, err := setup(f, os.Stderr)
	if err != nil {
		return err
	}
	defer cleanup()

	orch := updater.New(cfg, updater.Options{Journal: journal})
	result, err := orch.Check(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Installed: %s\n", result.LocalVersion)
	fmt.Printf("Available: %s\n", result.RemoteVersion)
	switch {
	case !result.BinaryPresent:
		fmt.Println("Installed program is missing; run 'slipway update' to repair it")
	case result.UpdateAvailable:
		fmt.Println("An update is available; run 'slipway update' to install it")
	default:
		fmt.Println("Up to date")
	}
	return nil
}

func runUpdate(args []string) error {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: slipway update [flags]

Run one update cycle: check, download, verify, install. The application is
not started.

Flags:
  -root      Anchor directory
  -verbose   Enable debug logging
`)
	}
	f := addCommonFlags(fs)
	fs.Parse(args)

	cfg, journal, cleanup, err := setupWithCycleLog(f)
	if err != nil {
		return err
	}
	defer cleanup()

	orch := updater.New(cfg, updater.Options{
		Journal:  journal,
		Events:   printEvents(),
		NoLaunch: true,
	})
	return orch.TriggerManual(context.Background())
}

func runLaunch(args []string) error {
	fs := flag.NewFlagSet("launch", flag.ExitOnError)
	f := addCommonFlags(fs)
	fs.Parse(args)

	cfg, journal, cleanup, err := setup(f, os.Stderr)
	if err != nil {
		return err
	}
	defer cleanup()

	orch := updater.New(cfg, updater.Options{Journal: journal, Events: printEvents()})
	return orch.Launch()
}

func runHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	f := addCommonFlags(fs)
	limit := fs.Int("n", 20, "Number of cycles to show")
	fs.Parse(args)

	_, journal, cleanup, err := setup(f, os.Stderr)
	if err != nil {
		return err
	}
	defer cleanup()

	cycles, err := journal.ListCycles(context.Background(), *limit)
	if err != nil {
		return fmt.Errorf("failed to list cycles: %w", err)
	}

	if len(cycles) == 0 {
		fmt.Println("No update cycles recorded")
		return nil
	}

	fmt.Println("Recent update cycles:")
	for _, c := range cycles {
		line := fmt.Sprintf("  %s  %-6s  %s -> %s  %s",
			c.StartedAt.Format(time.DateTime), c.Mode, c.FromVersion, c.ToVersion, c.Outcome)
		if c.Error != "" {
			line += "  (" + c.Error + ")"
		}
		fmt.Println(line)
	}
	return nil
}

func runShortcut(args []string) error {
	fs := flag.NewFlagSet("shortcut", flag.ExitOnError)
	name := fs.String("name", "Slipway", "Shortcut display name")
	fs.Parse(args)

	creator := shortcut.New()
	if !creator.Supported() {
		return fmt.Errorf("shortcuts are not supported on this platform")
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}
	if resolved, evalErr := filepath.EvalSymlinks(exe); evalErr == nil {
		exe = resolved
	}

	if err := creator.Create(*name, exe); err != nil {
		return fmt.Errorf("failed to create shortcut: %w", err)
	}

	fmt.Printf("Shortcut %q created\n", *name)
	return nil
}

func runConfigure(args []string) error {
	fs := flag.NewFlagSet("configure", flag.ExitOnError)
	fs.Usage = func() {
		ops := config.GetOperations()
		fmt.Fprintf(os.Stderr, "Usage: slipway configure [flags] <setting> [value]\n\nSettings:\n")
		for _, op := range ops {
			fmt.Fprintf(os.Stderr, "  %-14s %s\n", op.Name, op.Description)
		}
	}
	f := addCommonFlags(fs)
	fs.Parse(args)

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return nil
	}

	cfg, err := config.Load(f.root)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	name := rest[0]
	value := ""
	if len(rest) > 1 {
		value = rest[1]
	}

	for _, op := range config.GetOperations() {
		if op.Name == name {
			return op.Handler(cfg, value)
		}
	}

	return fmt.Errorf("unknown setting: %s", name)
}

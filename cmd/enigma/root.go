package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"enigma/internal/config"
	"enigma/internal/journal"
	"enigma/internal/logging"
	"enigma/internal/session"
)

// app carries the streams, flags and loaded settings shared by every
// subcommand.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath  string
	logLevel    string
	logFormat   string
	groupSize   int
	journalPath string

	// overrides holds the settings given as flags, so reloads keep them
	overrides *config.Config

	cfg    *config.Config
	logger *logging.Logger
	// prevLogger is the global default replaced by setup
	prevLogger *logging.Logger
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{stdin: stdin, stdout: stdout, stderr: stderr}
}

// execute runs the command line and returns the process exit code. Any
// error is reported as a single "Error: ..." line on stderr. The logger
// is closed on every path, including failed commands.
func (a *app) execute(ctx context.Context, args []string) int {
	defer a.teardown()

	root := newRootCmd(a)
	// a nil slice would make cobra fall back to os.Args
	root.SetArgs(append([]string{}, defaultToRun(root, args)...))
	if cmd, err := root.ExecuteContextC(ctx); err != nil {
		if a.logger != nil {
			a.logger.Debug("command failed", "command", cmd.Name(), "error", err)
		}
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "enigma",
		Short: "Simulate a rotor cipher machine",
		Long: `Simulate an Enigma-style rotor cipher machine.

A machine description names the alphabet, the number of rotor slots and
pawls, and the catalog of rotors. A message file starts with a settings
line such as

  * B Beta III IV I AXLE (HQ) (EX) (IP) (TR) (BY)

followed by message lines, which are converted and printed in groups of
five. Running a converted message through the same settings decrypts it.

Running "enigma <machine> [input [output]]" is the same as "enigma run".`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "settings file (default: "+config.ConfigPath()+")")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: text, json")
	flags.IntVar(&a.groupSize, "group-size", config.DefaultConfig().Output.GroupSize, "symbols per output group, negative for none")
	flags.StringVar(&a.journalPath, "journal", "", "record sessions in this journal database")

	root.AddCommand(
		newRunCmd(a),
		newWatchCmd(a),
		newRotorsCmd(a),
		newDescribeCmd(a),
		newHistoryCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return root
}

// defaultToRun inserts "run" before the first positional argument when it
// is not a known subcommand, so that "enigma naval.conf msg.txt" works.
// Leading persistent flags and their values are skipped.
func defaultToRun(root *cobra.Command, args []string) []string {
	i := 0
	for i < len(args) && strings.HasPrefix(args[i], "-") {
		name := strings.TrimLeft(args[i], "-")
		i++
		if strings.Contains(name, "=") {
			continue
		}
		f := root.PersistentFlags().Lookup(name)
		if f == nil && len(name) == 1 {
			f = root.PersistentFlags().ShorthandLookup(name)
		}
		if f != nil && f.NoOptDefVal == "" {
			i++ // value
		}
	}
	if i >= len(args) {
		return args
	}

	known := []string{"help", "completion"}
	for _, c := range root.Commands() {
		known = append(known, c.Name())
		known = append(known, c.Aliases...)
	}
	if slices.Contains(known, args[i]) {
		return args
	}
	out := make([]string, 0, len(args)+1)
	out = append(out, args[:i]...)
	out = append(out, "run")
	return append(out, args[i:]...)
}

// setup loads the settings file, merges flag overrides into it and
// installs the logger as the global default.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	path := a.configPath
	if path == "" {
		path = config.FindConfigFile()
	}
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}

	a.overrides = a.flagOverrides(cmd)
	cfg := config.Merge(loaded, a.overrides)
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := a.newLogger()
	if err != nil {
		return err
	}
	a.logger = logger
	a.prevLogger = logging.Default()
	logging.SetDefault(logger)
	return nil
}

// flagOverrides collects the settings given on the command line. Flags
// left at their defaults stay zero so Merge skips them.
func (a *app) flagOverrides(cmd *cobra.Command) *config.Config {
	o := &config.Config{}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		o.Logging.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		o.Logging.Format = a.logFormat
	}
	if flags.Changed("group-size") {
		o.Output.GroupSize = a.groupSize
		if o.Output.GroupSize == 0 {
			o.Output.GroupSize = session.DefaultGroupSize
		}
	}
	if flags.Changed("journal") {
		o.Journal.Enabled = true
		o.Journal.Path = a.journalPath
	}
	return o
}

func (a *app) newLogger() (*logging.Logger, error) {
	level, err := logging.ParseLevel(a.cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(a.cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	lc := &logging.Config{
		Level:     level,
		Format:    format,
		Output:    a.cfg.Logging.Output,
		FilePath:  a.cfg.Logging.FilePath,
		Component: "enigma",
	}
	if lc.Output == "" || strings.EqualFold(lc.Output, "stderr") {
		lc.Writer = a.stderr
	}
	return logging.New(lc)
}

// teardown restores the previous global logger and closes ours.
func (a *app) teardown() error {
	if a.logger == nil {
		return nil
	}
	if a.prevLogger != nil {
		logging.SetDefault(a.prevLogger)
		a.prevLogger = nil
	}
	err := a.logger.Close()
	a.logger = nil
	return err
}

// openJournal opens the journal when it is enabled. It returns nil, nil
// otherwise.
func (a *app) openJournal() (*journal.Journal, error) {
	if !a.cfg.Journal.Enabled {
		return nil, nil
	}
	j, err := journal.Open(a.cfg.Journal.Path)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("journal opened", "path", a.cfg.Journal.Path)
	return j, nil
}

func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "" {
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}
	return f, nil
}

func createOutput(path string, stdout io.Writer) (io.WriteCloser, error) {
	if path == "" {
		return nopWriteCloser{stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}
	return f, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

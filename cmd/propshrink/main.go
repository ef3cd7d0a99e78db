// Package main is the entry point for the propshrink CLI.
// propshrink checks properties against random inputs and reports failing
// inputs shrunk to minimal counterexamples, both on the command line and as
// an MCP tool for AI agents.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/nomagicln/propshrink/internal/logging"
	"github.com/nomagicln/propshrink/pkg/check"
	"github.com/nomagicln/propshrink/pkg/codegen"
	"github.com/nomagicln/propshrink/pkg/completion"
	"github.com/nomagicln/propshrink/pkg/config"
	"github.com/nomagicln/propshrink/pkg/expr"
	"github.com/nomagicln/propshrink/pkg/gens"
	"github.com/nomagicln/propshrink/pkg/history"
	"github.com/nomagicln/propshrink/pkg/mcp"
	"github.com/nomagicln/propshrink/pkg/report"
	"github.com/nomagicln/propshrink/pkg/runner"
	"github.com/nomagicln/propshrink/pkg/shrink"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Build information, set via ldflags
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// errFalsified is returned when a property fails. The report has already
// been printed, so only the exit status is left to set.
var errFalsified = errors.New("property falsified")

func main() {
	if err := Execute(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// Execute runs the root command with args. Errors other than a falsified
// property are formatted to stderr.
func Execute(args []string, stdout, stderr io.Writer) error {
	rootCmd := newRootCmd(stdout, stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errFalsified) {
		_, _ = fmt.Fprintln(stderr, report.NewErrorFormatter().FormatError(err))
	}
	return err
}

// app carries the state shared by the subcommands.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configDir string
	logLevel  string
	color     string

	configMgr *config.Manager
	cfg       *config.Config
}

// load reads the configuration and applies the logging settings. Flags win
// over the file.
func (a *app) load() error {
	var opts []config.ManagerOption
	if a.configDir != "" {
		opts = append(opts, config.WithConfigDir(a.configDir))
	}
	mgr, err := config.NewManager(opts...)
	if err != nil {
		return err
	}
	cfg, err := mgr.Load()
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.color != "" {
		cfg.Color = a.color
	}

	logging.SetOutput(a.stderr)
	logging.SetLogLevel(cfg.LogLevel)
	logging.SetLogFormat(cfg.LogFormat)

	a.configMgr = mgr
	a.cfg = cfg
	return nil
}

func (a *app) printer() (*report.Printer, error) {
	mode, err := report.ParseColorMode(a.cfg.Color)
	if err != nil {
		return nil, err
	}
	return report.NewPrinter(a.stdout, mode), nil
}

func (a *app) openHistory() (*history.Store, error) {
	return history.Open(a.cfg.HistoryPath)
}

// completer returns a completion provider. Completion runs without the
// persistent pre-run, so the configuration is loaded on first use.
func (a *app) completer() *completion.Provider {
	return completion.NewProvider(func() (completion.RecordLister, func(), error) {
		if a.cfg == nil {
			if err := a.load(); err != nil {
				return nil, nil, err
			}
		}
		store, err := a.openHistory()
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	})
}

// completeRecordID completes the first argument with recorded failure ids.
func (a *app) completeRecordID(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return a.completer().CompleteRecordIDs(cmd.Context(), toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeRecordIDs completes every argument with recorded failure ids.
func (a *app) completeRecordIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return a.completer().CompleteRecordIDs(cmd.Context(), toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeValues returns a flag completion function over fixed values.
func (a *app) completeValues(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return a.completer().CompleteValues(values, toComplete), cobra.ShellCompDirectiveNoFileComp
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:   "propshrink",
		Short: "propshrink - property checks with minimal counterexamples",
		Long: `propshrink checks a property against randomly generated inputs. When the
property fails, the failing input is shrunk until no smaller input still
fails, and both the minimal and the original input are reported.

The same checks are available to AI agents through an MCP server.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "Configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&a.color, "color", "", "Color output: auto, always, never")
	_ = rootCmd.RegisterFlagCompletionFunc("color", a.completeValues("auto", "always", "never"))
	_ = rootCmd.RegisterFlagCompletionFunc("log-level", a.completeValues("debug", "info", "warn", "error"))

	rootCmd.AddCommand(
		newCheckCmd(a),
		newReplayCmd(a),
		newHistoryCmd(a),
		newRulesCmd(a),
		newGeneratorsCmd(a),
		newMCPCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
		newCompletionCmd(a),
	)

	return rootCmd
}

// newCheckCmd creates the check subcommand
func newCheckCmd(a *app) *cobra.Command {
	var (
		expression string
		generators []string
		name       string
		trials     int
		seed       int64
		maxSweeps  int
		maxSteps   int
		noHistory  bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a property and minimize its counterexample",
		Long: `Check a property against random inputs. The property is an expression over
the arguments a, b, c, ... with one generator per argument, in order.

Example:
  propshrink check --expr 'a < 10' --gen 'int(0,1000)'
  propshrink check --expr 'Add(a, b) < 100' --gen int --gen int
  propshrink check --expr 'Len(a) < 3' --gen '[]int' --seed 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := check.NewRequest(a.cfg)
			req.Name = name
			req.Expression = expression
			req.Generators = generators
			if cmd.Flags().Changed("trials") {
				req.Trials = trials
			}
			if cmd.Flags().Changed("seed") {
				req.Seed = seed
			}
			if cmd.Flags().Changed("max-sweeps") {
				req.MaxSweeps = maxSweeps
			}
			if cmd.Flags().Changed("max-steps") {
				req.MaxSteps = maxSteps
			}

			outcome, err := check.Run(cmd.Context(), req)
			if err != nil {
				return err
			}

			p, err := a.printer()
			if err != nil {
				return err
			}
			if err := p.Outcome(req.DisplayName(), outcome); err != nil {
				return err
			}
			if !outcome.Falsified() {
				return nil
			}

			if !noHistory {
				if id, err := a.record(cmd.Context(), req, outcome); err != nil {
					logging.Logger(cmd.Context()).WithError(err).Warn("failed to record failure")
				} else {
					_, _ = fmt.Fprintf(a.stdout, "Recorded as %s (replay with: propshrink replay %s)\n", id, shortID(id))
				}
			}
			return errFalsified
		},
	}

	cmd.Flags().StringVarP(&expression, "expr", "e", "", "Property expression that should hold")
	cmd.Flags().StringArrayVarP(&generators, "gen", "g", nil, "Generator spec for the next argument (repeatable)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Name used in the report")
	cmd.Flags().IntVarP(&trials, "trials", "t", 0, "Number of passing tests required")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 draws a fresh seed)")
	cmd.Flags().IntVar(&maxSweeps, "max-sweeps", 0, "Cap on minimization sweeps (0 disables the cap)")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "Cap on accepted candidates per shrink (0 disables the cap)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record the failure")

	_ = cmd.MarkFlagRequired("expr")
	_ = cmd.RegisterFlagCompletionFunc("gen", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return a.completer().CompleteGenerators(toComplete), cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
	})

	return cmd
}

func (a *app) record(ctx context.Context, req check.Request, outcome *runner.Outcome) (string, error) {
	rec, err := check.Record(req, outcome)
	if err != nil {
		return "", err
	}
	store, err := a.openHistory()
	if err != nil {
		return "", err
	}
	defer func() { _ = store.Close() }()
	if err := store.Save(ctx, rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// newReplayCmd creates the replay subcommand
func newReplayCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <id>",
		Short: "Re-run a recorded failure",
		Long: `Re-run a recorded failure with its seed, trials and sizes, and report
whether the minimized counterexample still reproduces. An id prefix is enough
when it is unambiguous.

Example:
  propshrink replay 3f2a9c1e`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: a.completeRecordID,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rec, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			req := check.FromRecord(rec, check.NewRequest(a.cfg))
			outcome, err := check.Run(cmd.Context(), req)
			if err != nil {
				return err
			}

			p, err := a.printer()
			if err != nil {
				return err
			}
			if err := p.Outcome(req.DisplayName(), outcome); err != nil {
				return err
			}

			if !outcome.Falsified() {
				_, _ = fmt.Fprintf(a.stdout, "Recorded failure %s no longer reproduces.\n", shortID(rec.ID))
				return nil
			}
			if sameValues(rec.Minimized, outcome.Failure.Counterexample) {
				_, _ = fmt.Fprintf(a.stdout, "Reproduced recorded failure %s.\n", shortID(rec.ID))
			} else {
				_, _ = fmt.Fprintf(a.stdout, "Failure %s reproduces with a different counterexample.\n", shortID(rec.ID))
			}
			return errFalsified
		},
	}
	return cmd
}

// sameValues compares recorded and fresh arguments by their JSON form,
// since recorded values come back from JSON.
func sameValues(recorded, fresh []any) bool {
	if len(recorded) != len(fresh) {
		return false
	}
	for i := range recorded {
		want, err := json.Marshal(recorded[i])
		if err != nil {
			return false
		}
		got, err := json.Marshal(fresh[i])
		if err != nil || !bytes.Equal(want, got) {
			return false
		}
	}
	return true
}

// newHistoryCmd creates the history subcommand
func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage recorded failures",
	}
	cmd.AddCommand(newHistoryListCmd(a), newHistoryShowCmd(a), newHistoryExportCmd(a), newHistoryRmCmd(a))
	return cmd
}

func newHistoryListCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded failures, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			records, err := store.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to list history: %w", err)
			}
			if len(records) == 0 {
				_, _ = fmt.Fprintln(a.stdout, "No recorded failures.")
				return nil
			}

			w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tNAME\tCOUNTEREXAMPLE\tCREATED")
			_, _ = fmt.Fprintln(w, "--\t----\t--------------\t-------")
			for _, r := range records {
				name := r.Name
				if len(name) > 40 {
					name = name[:37] + "..."
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					shortID(r.ID), name, formatArgs(r.Minimized), r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of records (0 lists all)")

	return cmd
}

func formatArgs(args []any) string {
	parts := make([]string, len(args))
	for i, v := range args {
		parts[i] = report.Value(v)
	}
	return strings.Join(parts, ", ")
}

func newHistoryShowCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:               "show <id>",
		Short:             "Show a recorded failure",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: a.completeRecordID,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rec, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			switch output {
			case "json":
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			case "yaml":
				enc := yaml.NewEncoder(a.stdout)
				enc.SetIndent(2)
				if err := enc.Encode(rec); err != nil {
					return err
				}
				return enc.Close()
			case "text", "":
				writeRecord(a.stdout, rec)
				return nil
			}
			return fmt.Errorf("unknown output format %q (want text, json or yaml)", output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text, json, yaml")

	return cmd
}

func writeRecord(w io.Writer, r *history.Record) {
	_, _ = fmt.Fprintf(w, "ID:          %s\n", r.ID)
	_, _ = fmt.Fprintf(w, "Name:        %s\n", r.Name)
	_, _ = fmt.Fprintf(w, "Expression:  %s\n", r.Expression)
	_, _ = fmt.Fprintf(w, "Generators:  %s\n", strings.Join(r.Generators, ", "))
	_, _ = fmt.Fprintf(w, "Seed:        %d\n", r.Seed)
	_, _ = fmt.Fprintf(w, "Passed:      %d\n", r.Passed)
	_, _ = fmt.Fprintf(w, "Shrinks:     %d\n", r.Shrinks)
	if r.GaveUp {
		_, _ = fmt.Fprintln(w, "Gave up:     sweep limit reached")
	}
	_, _ = fmt.Fprintf(w, "Minimized:   %s\n", formatArgs(r.Minimized))
	_, _ = fmt.Fprintf(w, "Original:    %s\n", formatArgs(r.Original))
	_, _ = fmt.Fprintf(w, "Created:     %s\n", r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
}

func newHistoryExportCmd(a *app) *cobra.Command {
	var (
		format  string
		pkgName string
	)

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Print a reproducer for a recorded failure",
		Long: `Print a reproducer for a recorded failure: a shell command, a Go regression
test that fails until the property holds again, or MCP tool call arguments.

Example:
  propshrink history export 3f2a9c1e --format go > regression_test.go`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: a.completeRecordID,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := codegen.NewGenerator(codegen.OutputFormat(format), codegen.Options{Package: pkgName})
			if err != nil {
				return err
			}

			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rec, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			code, err := gen.Generate(rec)
			if err != nil {
				return err
			}
			_, err = io.WriteString(a.stdout, code)
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(codegen.FormatShell), "Output format: "+strings.Join(codegen.ListFormats(), ", "))
	cmd.Flags().StringVar(&pkgName, "package", "", "Package clause for the go format")
	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return a.completer().CompleteFormats(toComplete), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func newHistoryRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:               "rm <id>...",
		Aliases:           []string{"delete"},
		Short:             "Delete recorded failures",
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: a.completeRecordIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			for _, id := range args {
				rec, err := store.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				if err := store.Delete(cmd.Context(), rec.ID); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(a.stdout, "✓ Deleted %s\n", shortID(rec.ID))
			}
			return nil
		},
	}
}

// newRulesCmd creates the rules subcommand
func newRulesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List expression functions and shrink rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "FUNCTION\tDESCRIPTION")
			for _, f := range expr.Functions() {
				_, _ = fmt.Fprintf(w, "%s\t%s\n", f[0], f[1])
			}
			if err := w.Flush(); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(a.stdout, "\nOperators: == != < > <= >= && || !")
			_, _ = fmt.Fprintln(a.stdout, "\nShrink rules, first match wins:")
			for _, r := range shrink.Default().Rules() {
				_, _ = fmt.Fprintf(a.stdout, "  %s\n", r)
			}
			return nil
		},
	}
}

// newGeneratorsCmd creates the generators subcommand
func newGeneratorsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "generators",
		Short: "List generator specs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "GENERATOR\tDESCRIPTION")
			for _, g := range gens.Names() {
				_, _ = fmt.Fprintf(w, "%s\t%s\n", g[0], g[1])
			}
			return w.Flush()
		},
	}
}

// newMCPCmd creates the mcp subcommand
func newMCPCmd(a *app) *cobra.Command {
	var (
		transport string
		port      string
		noHistory bool
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the minimization tool over MCP",
		Long: `Start an MCP server exposing the minimize_counterexample tool.

Example:
  propshrink mcp
  propshrink mcp --transport sse --port 8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var recorder mcp.Recorder
			if !noHistory {
				store, err := a.openHistory()
				if err != nil {
					return err
				}
				defer func() { _ = store.Close() }()
				recorder = store
			}

			factory := mcp.NewServerFactory("propshrink", version)
			server := factory.CreateServer(mcp.NewMinimizeHandler(check.NewRequest(a.cfg), recorder))
			return factory.RunServer(ctx, server, transport, port, a.stderr)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport: stdio, sse")
	_ = cmd.RegisterFlagCompletionFunc("transport", a.completeValues("stdio", "sse"))
	cmd.Flags().StringVar(&port, "port", "8080", "Port for the sse transport")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record failures")

	return cmd
}

// newConfigCmd creates the config subcommand
func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialize the configuration",
	}

	var showFormat string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _ = fmt.Fprintf(a.stdout, "# %s\n", a.configMgr.ConfigPath())
			return config.Encode(a.stdout, a.cfg, config.Format(showFormat))
		},
	}
	show.Flags().StringVarP(&showFormat, "output", "o", "yaml", "Output format: yaml, toml")

	var (
		useTOML bool
		force   bool
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(a.configMgr.ConfigPath()); err == nil && !force {
				return fmt.Errorf("config file '%s' already exists (use --force to overwrite)", a.configMgr.ConfigPath())
			}
			format := config.FormatYAML
			if useTOML {
				format = config.FormatTOML
			}
			path, err := a.configMgr.Save(config.Default(), format)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(a.stdout, "✓ Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&useTOML, "toml", false, "Write config.toml instead of config.yaml")
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")

	cmd.AddCommand(show, initCmd)
	return cmd
}

// newVersionCmd creates the version subcommand
func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _ = fmt.Fprintf(a.stdout, "propshrink %s\n", version)
			_, _ = fmt.Fprintf(a.stdout, "  commit: %s\n", commit)
			_, _ = fmt.Fprintf(a.stdout, "  built:  %s\n", date)
			return nil
		},
	}
}

// newCompletionCmd creates the completion subcommand
func newCompletionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion script for propshrink.

Recorded failure ids, generator specs and export formats are completed.

Bash:
  source <(propshrink completion bash)

Zsh:
  propshrink completion zsh > "${fpath[1]}/_propshrink"

Fish:
  propshrink completion fish | source`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		PersistentPreRunE:     func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(a.stdout, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(a.stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(a.stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(a.stdout)
			}
			return fmt.Errorf("unsupported shell: %s", args[0])
		},
	}
}

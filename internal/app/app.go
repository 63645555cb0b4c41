// internal/app/app.go
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"dirtywater-core/pcr"
	"dirtywater-core/protocol"

	"dirtywater/internal/cmdutil"
	"dirtywater/internal/pcrcli"
	"dirtywater/internal/version"
	"dirtywater/internal/writers"
)

// Exit codes.
const (
	exitOK       = 0
	exitUsage    = 2
	exitIO       = 3
	exitCanceled = 130
)

// maxAdditivePercent is where additive concentrations start to inhibit most
// polymerases.
const maxAdditivePercent = 10.0

// exitError tags an error with the process exit code it maps to.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageErr(err error) error { return &exitError{code: exitUsage, err: err} }
func ioErr(err error) error    { return &exitError{code: exitIO, err: err} }

type rootOptions struct {
	logLevel    string
	quiet       bool
	presetsFile string

	presets *pcr.Presets
}

// Run is RunContext without cancellation.
func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

// RunContext runs the dirtywater CLI and returns the process exit code.
func RunContext(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)

	root := newRootCmd(outw, stderr)
	root.SetArgs(argv)
	err := root.ExecuteContext(ctx)
	if ferr := outw.Flush(); err == nil && ferr != nil {
		err = ioErr(ferr)
	}
	return exitCode(ctx, err, stderr)
}

func exitCode(ctx context.Context, err error, stderr io.Writer) int {
	if err == nil {
		return exitOK
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return exitCanceled
	}
	if writers.IsBrokenPipe(err) {
		return exitOK
	}
	_, _ = fmt.Fprintln(stderr, "dirtywater:", err)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// cobra's own errors: unknown command, bad args
	return exitUsage
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	ro := &rootOptions{}
	root := &cobra.Command{
		Use:           "dirtywater",
		Short:         "Generate PCR setup protocols",
		Version:       version.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := cmdutil.SetupLogging(errOut, ro.logLevel, ro.quiet); err != nil {
				return usageErr(err)
			}
			return ro.loadPresets()
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageErr(err) })

	pf := root.PersistentFlags()
	pf.StringVar(&ro.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	pf.BoolVarP(&ro.quiet, "quiet", "q", false, "suppress warnings")
	pf.StringVar(&ro.presetsFile, "presets", "", "YAML file with extra polymerase and program presets")

	root.AddCommand(newPcrCmd(ro), newPresetsCmd(ro))
	return root
}

func (ro *rootOptions) loadPresets() error {
	ro.presets = pcr.Builtin()
	if ro.presetsFile == "" {
		return nil
	}
	f, err := os.Open(ro.presetsFile)
	if err != nil {
		return ioErr(err)
	}
	defer f.Close()

	custom, err := pcr.LoadPresets(f)
	if err != nil {
		return usageErr(fmt.Errorf("%s: %w", ro.presetsFile, err))
	}
	ro.presets = ro.presets.Merge(custom)
	logrus.WithFields(logrus.Fields{
		"file":        ro.presetsFile,
		"polymerases": len(custom.PolymeraseNames()),
		"programs":    len(custom.ProgramNames()),
	}).Debug("loaded presets")
	return nil
}

func newPcrCmd(ro *rootOptions) *cobra.Command {
	var o pcrcli.Options
	cmd := &cobra.Command{
		Use:   "pcr",
		Short: "Print a PCR setup protocol",
		Example: `  dirtywater pcr -n 8 --extra-master-mix 0.1
  dirtywater pcr -p taq --ta 58 --dmso
  dirtywater pcr --primer-mix -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPcr(cmd, ro, &o)
		},
	}
	pcrcli.Register(cmd.Flags(), &o)
	return cmd
}

func runPcr(cmd *cobra.Command, ro *rootOptions, o *pcrcli.Options) error {
	if err := pcrcli.Validate(o); err != nil {
		return usageErr(err)
	}
	opts, err := pcrcli.PcrOptions(cmd.Flags(), o)
	if err != nil {
		return usageErr(err)
	}
	p, err := pcr.New(append(opts, pcr.WithPresets(ro.presets))...)
	if err != nil {
		return usageErr(err)
	}
	logrus.WithFields(logrus.Fields{
		"polymerase": p.Polymerase().Reagent,
		"reactions":  p.NumReactions(),
		"extra":      p.ExtraMasterMix(),
		"anneal":     p.AnnealTemp(),
		"cycles":     p.NumCycles(),
	}).Debug("pcr configured")
	warnPcr(ro.quiet, o, p)

	if err := cmd.Context().Err(); err != nil {
		return err
	}
	doc := writers.Document{
		Protocol: protocol.New().Extend(p),
		Reaction: p.Reaction,
	}
	if err := writers.WriteProtocol(o.Output, cmd.OutOrStdout(), doc); err != nil {
		return ioErr(err)
	}
	return nil
}

// warnPcr flags setups that render but are unlikely to work at the bench.
func warnPcr(quiet bool, o *pcrcli.Options, p *pcr.Pcr) {
	if w, ok := p.Reaction.Lookup(pcr.Water); ok {
		if v, ok := w.Volume.Magnitude(); ok && v < 0 {
			cmdutil.Warnf(quiet, "water volume is negative (%s); lower the additive percentages", w.Volume)
		}
	}
	if o.DMSO > maxAdditivePercent {
		cmdutil.Warnf(quiet, "%s at %g%% exceeds %g%%", pcr.DMSO, o.DMSO, maxAdditivePercent)
	}
	if o.Betaine > maxAdditivePercent {
		cmdutil.Warnf(quiet, "%s at %g%% exceeds %g%%", pcr.Betaine, o.Betaine, maxAdditivePercent)
	}
}

func newPresetsCmd(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "presets [program...]",
		Short: "List polymerase presets, or print thermocycler programs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return listPresets(cmd.OutOrStdout(), ro.presets)
			}
			return showPrograms(cmd.OutOrStdout(), ro.presets, args)
		},
	}
}

func listPresets(w io.Writer, ps *pcr.Presets) error {
	var b strings.Builder
	b.WriteString("Polymerases:\n")
	for _, name := range ps.PolymeraseNames() {
		pol, _ := ps.Polymerase(name)
		stock := ""
		if pol.Stock != "" {
			stock = " (" + pol.Stock + ")"
		}
		fmt.Fprintf(&b, "  %-10s %s%s, %g µL, program %s\n", name, pol.Reagent, stock, pol.Volume, pol.Program)
	}
	b.WriteString("\nPrograms:\n")
	for _, name := range ps.ProgramNames() {
		fmt.Fprintf(&b, "  %s\n", name)
	}
	b.WriteString("\nParameter aliases:\n")
	aliases := pcr.Aliases()
	for _, alias := range sortedKeys(aliases) {
		fmt.Fprintf(&b, "  %-15s %s\n", alias, aliases[alias])
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return ioErr(err)
	}
	return nil
}

func showPrograms(w io.Writer, ps *pcr.Presets, names []string) error {
	var b strings.Builder
	for i, name := range names {
		prog, ok := ps.Program(name)
		if !ok {
			return usageErr(fmt.Errorf("program %q: %w", name, pcr.ErrUnknownPreset))
		}
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s:\n%s\n\nParameters:\n", name, prog.Render())
		for _, k := range prog.Keys() {
			v, _ := prog.Get(k)
			fmt.Fprintf(&b, "  %s = %g\n", k, v)
		}
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return ioErr(err)
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

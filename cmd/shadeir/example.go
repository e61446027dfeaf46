package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"shadeir/internal/diag"
	"shadeir/internal/ir"
	"shadeir/internal/ir/binary"
	"shadeir/internal/lower"
	"shadeir/internal/samples"
	"shadeir/internal/trace"
)

// ModuleExt is the file extension of encoded IR modules.
const ModuleExt = ".sir"

var exampleCmd = &cobra.Command{
	Use:       "example [name...]",
	Short:     "Lower the built-in sample programs and print their IR",
	Long:      `Lower one or more built-in sample programs (all of them by default), validate the result and print the disassembly`,
	ValidArgs: samples.Names(),
	RunE:      runExample,
}

func init() {
	exampleCmd.Flags().Bool("list", false, "list the available samples and exit")
	exampleCmd.Flags().StringP("out", "o", "", "directory to write encoded modules into (<name>"+ModuleExt+")")
	exampleCmd.Flags().Bool("no-dis", false, "do not print the disassembly")
}

type loweredSample struct {
	sample samples.Sample
	result lower.Result
}

func runExample(cmd *cobra.Command, args []string) error {
	s := current
	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return fmt.Errorf("failed to get list flag: %w", err)
	}
	outDir, err := cmd.Flags().GetString("out")
	if err != nil {
		return fmt.Errorf("failed to get out flag: %w", err)
	}
	noDis, err := cmd.Flags().GetBool("no-dis")
	if err != nil {
		return fmt.Errorf("failed to get no-dis flag: %w", err)
	}

	out := cmd.OutOrStdout()
	if list {
		for _, sm := range samples.All() {
			fmt.Fprintf(out, "%-12s %s\n", sm.Name, sm.Summary)
		}
		return nil
	}

	selected, err := selectSamples(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	span := trace.Begin(s.tracer, trace.ScopeDriver, "example", 0)
	ctx = trace.WithSpan(ctx, span)
	defer span.End(strings.Join(args, ","))

	// Validation runs below as its own traced pass.
	opts := s.cfg.LowerOptions()
	opts.Validate = false

	lowered := make([]loweredSample, len(selected))
	idx := s.timer.Begin("lower")
	g, gctx := errgroup.WithContext(trace.WithSpan(ctx, s.timer.Span(idx)))
	g.SetLimit(s.jobs())
	for i, sm := range selected {
		g.Go(func() error {
			lowered[i] = loweredSample{sample: sm, result: lower.BuildWithOptions(gctx, sm.Build(), opts)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, ls := range lowered {
		s.timer.Add(idx, "programs", 1)
		if ls.result.Module != nil {
			s.timer.Add(idx, "functions", len(ls.result.Module.Functions()))
			s.timer.Add(idx, "instructions", ls.result.Module.InstructionCount())
		}
	}
	s.timer.End(idx)

	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	failed := 0
	for i, ls := range lowered {
		res := ls.result
		if res.OK() && s.cfg.Lower.Validate {
			vidx := s.timer.Begin("validate " + ls.sample.Name)
			validateModule(trace.WithSpan(ctx, s.timer.Span(vidx)), ls.sample.Name, res.Module, res.Bag)
			s.timer.Add(vidx, "diagnostics", res.Bag.Len())
			s.timer.End(vidx)
		}
		if !res.OK() {
			failed++
			printDiagnostics(cmd.ErrOrStderr(), ls.sample.Name, res.Bag)
			if res.Bag.HasICE() {
				s.dumpTrace(cmd.ErrOrStderr())
			}
			continue
		}
		if !noDis && !s.quiet {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "; sample %s\n", ls.sample.Name)
			if err := ir.Fprint(out, res.Module); err != nil {
				return fmt.Errorf("%s: %w", ls.sample.Name, err)
			}
		}
		if outDir != "" {
			if err := writeModule(s, filepath.Join(outDir, ls.sample.Name+ModuleExt), res.Module); err != nil {
				return err
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d samples failed", failed, len(lowered))
	}
	return nil
}

func selectSamples(names []string) ([]samples.Sample, error) {
	if len(names) == 0 {
		return samples.All(), nil
	}
	out := make([]samples.Sample, 0, len(names))
	for _, name := range names {
		sm, ok := samples.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown sample %q (available: %s)", name, strings.Join(samples.Names(), ", "))
		}
		if slices.ContainsFunc(out, func(x samples.Sample) bool { return x.Name == name }) {
			continue
		}
		out = append(out, sm)
	}
	return out, nil
}

func writeModule(s *session, path string, mod *ir.Module) error {
	idx := s.timer.Begin("encode " + filepath.Base(path))
	data, err := binary.Marshal(mod)
	s.timer.Add(idx, "bytes", len(data))
	s.timer.End(idx)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if !s.quiet {
		fmt.Fprintf(os.Stderr, "wrote %s (%d bytes)\n", path, len(data))
	}
	return nil
}

// newBag returns a diagnostics bag sized by the session settings.
func (s *session) newBag() *diag.Bag {
	return diag.NewBag(s.cfg.Output.MaxDiagnostics)
}

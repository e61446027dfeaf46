package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"shadeir/internal/diag"
	"shadeir/internal/ir"
	"shadeir/internal/ir/binary"
	"shadeir/internal/trace"
)

// loadedModule is one decoded input file. Err is set instead of Module when
// the file could not be read or decoded.
type loadedModule struct {
	Path   string
	Module *ir.Module
	Err    error
}

// loadModules decodes paths with at most jobs files in flight. Every file
// gets its own module, so the workers share nothing.
func loadModules(ctx context.Context, paths []string, jobs int) ([]loadedModule, error) {
	out := make([]loadedModule, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range paths {
		out[i].Path = path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "decode", trace.CurrentSpan(ctx))
			defer span.End(path)

			data, err := os.ReadFile(path)
			if err != nil {
				out[i].Err = err
				return nil
			}
			mod, err := binary.Unmarshal(data)
			if err != nil {
				out[i].Err = fmt.Errorf("%s: %w", path, err)
				return nil
			}
			out[i].Module = mod
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// decodeInputs loads paths as one timed "decode" phase. The per-file decode
// passes nest under the phase span.
func (s *session) decodeInputs(ctx context.Context, paths []string) ([]loadedModule, error) {
	idx := s.timer.Begin("decode")
	defer s.timer.End(idx)
	mods, err := loadModules(trace.WithSpan(ctx, s.timer.Span(idx)), paths, s.jobs())
	s.timer.Add(idx, "files", len(paths))
	for _, lm := range mods {
		if lm.Module != nil {
			s.timer.Add(idx, "instructions", lm.Module.InstructionCount())
		}
	}
	return mods, err
}

// validateModule runs the IR validator as a traced pass and reports
// violations into bag.
func validateModule(ctx context.Context, name string, mod *ir.Module, bag *diag.Bag) bool {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopePass, "validate", trace.CurrentSpan(ctx))
	ok := ir.ValidateBag(mod, bag)
	span.WithExtra("module", name).WithExtra("diagnostics", fmt.Sprint(bag.Len())).End("")
	return ok
}

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file" + ModuleExt + "...>",
	Short: "Check encoded IR modules against the graph invariants",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

var okColor = color.New(color.FgGreen)

func runValidate(cmd *cobra.Command, args []string) error {
	s := current
	ctx := cmd.Context()
	mods, err := s.decodeInputs(ctx, args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	invalid := 0
	vidx := s.timer.Begin("validate")
	for _, lm := range mods {
		if lm.Err != nil {
			invalid++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", errorColor.Sprint("error:"), lm.Err)
			continue
		}
		bag := s.newBag()
		s.timer.Add(vidx, "modules", 1)
		if !validateModule(ctx, lm.Path, lm.Module, bag) {
			invalid++
			printDiagnostics(cmd.ErrOrStderr(), lm.Path, bag)
			continue
		}
		if !s.quiet {
			fmt.Fprintf(out, "%s: %s\n", lm.Path, okColor.Sprint("ok"))
		}
	}
	s.timer.End(vidx)
	if invalid > 0 {
		return fmt.Errorf("%d of %d modules are invalid", invalid, len(mods))
	}
	return nil
}

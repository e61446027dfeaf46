package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shadeir/internal/ir"
)

var disCmd = &cobra.Command{
	Use:   "dis <file" + ModuleExt + "...>",
	Short: "Disassemble encoded IR modules",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDis,
}

func runDis(cmd *cobra.Command, args []string) error {
	s := current
	mods, err := s.decodeInputs(cmd.Context(), args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	for i, lm := range mods {
		if lm.Err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", errorColor.Sprint("error:"), lm.Err)
			continue
		}
		if len(mods) > 1 {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "; %s\n", lm.Path)
		}
		if err := ir.Fprint(out, lm.Module); err != nil {
			return fmt.Errorf("%s: %w", lm.Path, err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be decoded", failed, len(mods))
	}
	return nil
}

package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"shadeir/internal/version"
)

var rootCmd = &cobra.Command{
	Use:               "shadeir",
	Short:             "Shader IR lowering toolkit",
	Long:              `shadeir lowers resolved shader programs into a control-flow IR and inspects encoded IR modules`,
	SilenceUsage:      true,
	PersistentPreRunE: prepareSession,
}

// main registers the subcommands and global flags, then executes the root
// command. A failed command exits with status 1.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(exampleCmd)
	rootCmd.AddCommand(disCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "path to shadeir.toml (default: search upwards from the working directory)")
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	pf.Int("jobs", 0, "max parallel workers (0=auto)")
	pf.String("trace", "", "trace output file (- for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "stream", "trace storage mode (stream|ring|both)")
	pf.Int("trace-ring-size", 4096, "ring buffer size for ring mode")

	err := rootCmd.Execute()
	closeSession()
	if err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

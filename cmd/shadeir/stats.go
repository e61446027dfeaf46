package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"shadeir/internal/ir"
)

var statsCmd = &cobra.Command{
	Use:   "stats <file" + ModuleExt + "...>",
	Short: "Print per-function statistics of encoded IR modules",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().Int("name-width", 32, "truncate function names wider than this many columns")
}

type functionStats struct {
	Name         string
	Stage        string
	Params       int
	Blocks       int
	Instructions int
	Returns      int
}

func collectStats(m *ir.Module) []functionStats {
	out := make([]functionStats, 0, len(m.Functions())+1)
	if m.HasRootBlock() {
		st := functionStats{Name: "<root>", Stage: "-"}
		countBlock(m.RootBlock(), &st)
		out = append(out, st)
	}
	for _, fn := range m.Functions() {
		st := functionStats{
			Name:    m.NameOf(fn),
			Stage:   fn.Stage.String(),
			Params:  len(fn.Params()),
			Returns: fn.ReturnCount(),
		}
		countBlock(fn.StartBlock(), &st)
		out = append(out, st)
	}
	return out
}

func countBlock(b *ir.Block, st *functionStats) {
	if b == nil {
		return
	}
	st.Blocks++
	for inst := range b.Instructions() {
		st.Instructions++
		if ctrl, ok := inst.(ir.ControlInstruction); ok {
			for _, sub := range ctrl.Blocks() {
				countBlock(sub, st)
			}
		}
	}
}

func runStats(cmd *cobra.Command, args []string) error {
	s := current
	nameWidth, err := cmd.Flags().GetInt("name-width")
	if err != nil {
		return fmt.Errorf("failed to get name-width flag: %w", err)
	}
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
		if i > 0 {
			fmt.Fprintln(out)
		}
		renderStats(out, s.color, lm.Path, lm.Module, nameWidth)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be decoded", failed, len(mods))
	}
	return nil
}

var statsHeader = []string{"function", "stage", "params", "blocks", "insts", "returns"}

func renderStats(w io.Writer, colored bool, title string, m *ir.Module, nameWidth int) {
	titleStyle := lipgloss.NewStyle()
	headStyle := lipgloss.NewStyle()
	totalStyle := lipgloss.NewStyle()
	if colored {
		titleStyle = titleStyle.Bold(true).Foreground(lipgloss.Color("7"))
		headStyle = headStyle.Bold(true).Foreground(lipgloss.Color("6"))
		totalStyle = totalStyle.Foreground(lipgloss.Color("2"))
	}

	stats := collectStats(m)
	rows := make([][]string, 0, len(stats)+1)
	total := functionStats{Name: "total", Stage: fmt.Sprintf("%d entry", len(m.EntryPoints()))}
	for _, st := range stats {
		rows = append(rows, st.cells(nameWidth))
		total.Params += st.Params
		total.Blocks += st.Blocks
		total.Instructions += st.Instructions
		total.Returns += st.Returns
	}

	widths := make([]int, len(statsHeader))
	for i, h := range statsHeader {
		widths[i] = runewidth.StringWidth(h)
	}
	totalRow := total.cells(nameWidth)
	for _, row := range append(rows, totalRow) {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s (%d functions, %d instructions)", title, len(m.Functions()), m.InstructionCount())))
	fmt.Fprintln(w, headStyle.Render(formatRow(statsHeader, widths)))
	for _, row := range rows {
		fmt.Fprintln(w, formatRow(row, widths))
	}
	fmt.Fprintln(w, totalStyle.Render(formatRow(totalRow, widths)))
}

func (st functionStats) cells(nameWidth int) []string {
	return []string{
		truncate(st.Name, nameWidth),
		st.Stage,
		strconv.Itoa(st.Params),
		strconv.Itoa(st.Blocks),
		strconv.Itoa(st.Instructions),
		strconv.Itoa(st.Returns),
	}
}

// formatRow left-aligns the text columns and right-aligns the counts.
func formatRow(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		if i < 2 {
			parts[i] = runewidth.FillRight(c, widths[i])
		} else {
			parts[i] = runewidth.FillLeft(c, widths[i])
		}
	}
	return "  " + strings.Join(parts, "  ")
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}

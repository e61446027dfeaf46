// Package observ times the phases of a CLI run. Each phase can carry the
// figures it produced (functions lowered, instructions, bytes written) and,
// with a tracer attached, is mirrored as a driver span.
package observ

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"shadeir/internal/trace"
)

// Count is a named figure recorded on a phase.
type Count struct {
	Name string
	N    int
}

// Phase is one timed step: lower, validate, encode or decode.
type Phase struct {
	Name   string
	Start  time.Time
	Dur    time.Duration
	Counts []Count

	span  *trace.Span
	ended bool
}

// Timer is not safe for concurrent use; phases are opened and closed by the
// goroutine driving the command.
type Timer struct {
	phases []Phase
	tracer trace.Tracer
	parent uint64
}

func NewTimer() *Timer { return &Timer{phases: make([]Phase, 0, 8)} }

// Attach mirrors phases begun from now on as driver spans under parent.
func (t *Timer) Attach(tr trace.Tracer, parent uint64) {
	t.tracer, t.parent = tr, parent
}

// Begin starts a phase and returns its index.
func (t *Timer) Begin(name string) int {
	p := Phase{Name: name, Start: time.Now()}
	if t.tracer != nil {
		p.span = trace.Begin(t.tracer, trace.ScopeDriver, name, t.parent)
	}
	t.phases = append(t.phases, p)
	return len(t.phases) - 1
}

// Span returns the trace span of phase idx, or nil when no tracer is
// attached. Work started under it nests below the phase.
func (t *Timer) Span(idx int) *trace.Span {
	if idx < 0 || idx >= len(t.phases) {
		return nil
	}
	return t.phases[idx].span
}

// Add accumulates n into the named figure of phase idx.
func (t *Timer) Add(idx int, name string, n int) {
	if idx < 0 || idx >= len(t.phases) {
		return
	}
	p := &t.phases[idx]
	for i := range p.Counts {
		if p.Counts[i].Name == name {
			p.Counts[i].N += n
			return
		}
	}
	p.Counts = append(p.Counts, Count{Name: name, N: n})
}

// End closes phase idx. Closing twice keeps the first duration.
func (t *Timer) End(idx int) {
	if idx < 0 || idx >= len(t.phases) {
		return
	}
	p := &t.phases[idx]
	if p.ended {
		return
	}
	p.ended = true
	p.Dur = time.Since(p.Start)
	if p.span != nil {
		for _, c := range p.Counts {
			p.span.WithExtra(c.Name, strconv.Itoa(c.N))
		}
		p.span.End("")
		p.span = nil
	}
}

// PhaseReport is the serialisable form of one phase.
type PhaseReport struct {
	Name       string         `json:"name"`
	DurationMS float64        `json:"duration_ms"`
	Counts     map[string]int `json:"counts,omitempty"`
}

// Report aggregates all phases. Totals sums each figure across phases.
type Report struct {
	TotalMS float64        `json:"total_ms"`
	Phases  []PhaseReport  `json:"phases"`
	Totals  map[string]int `json:"totals,omitempty"`
}

func (t *Timer) Report() Report {
	if len(t.phases) == 0 {
		return Report{}
	}
	report := Report{Phases: make([]PhaseReport, len(t.phases))}
	var total time.Duration
	for i, p := range t.phases {
		total += p.Dur
		pr := PhaseReport{Name: p.Name, DurationMS: millis(p.Dur)}
		if len(p.Counts) > 0 {
			pr.Counts = make(map[string]int, len(p.Counts))
			if report.Totals == nil {
				report.Totals = make(map[string]int)
			}
			for _, c := range p.Counts {
				pr.Counts[c.Name] += c.N
				report.Totals[c.Name] += c.N
			}
		}
		report.Phases[i] = pr
	}
	report.TotalMS = millis(total)
	return report
}

// Summary renders one line per phase with its figures in recording order.
func (t *Timer) Summary() string {
	var sb strings.Builder
	sb.WriteString("timings:\n")
	var total time.Duration
	for _, p := range t.phases {
		total += p.Dur
		fmt.Fprintf(&sb, "  %-20s %7.2f ms", p.Name, millis(p.Dur))
		for _, c := range p.Counts {
			fmt.Fprintf(&sb, "  %s=%d", c.Name, c.N)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "  %-20s %7.2f ms\n", "total", millis(total))
	return sb.String()
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

package commands

import (
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/Sumatoshi-tech/localekeys/pkg/catalog"
)

// progress prints catalogue build events to the terminal.
type progress struct {
	out    io.Writer
	silent bool
	total  int
	done   int

	accent *color.Color
	muted  *color.Color
	ok     *color.Color
}

func newProgress(out io.Writer, silent, noColor bool) *progress {
	p := &progress{
		out:    out,
		silent: silent,
		accent: color.New(color.FgCyan, color.Bold),
		muted:  color.New(color.Faint),
		ok:     color.New(color.FgGreen),
	}

	if noColor {
		p.accent.DisableColor()
		p.muted.DisableColor()
		p.ok.DisableColor()
	}

	return p
}

// consume reports events until the stream is closed.
func (p *progress) consume(events <-chan catalog.Event) {
	for ev := range events {
		p.handle(ev)
	}
}

func (p *progress) handle(ev catalog.Event) {
	switch ev.Kind {
	case catalog.EventStart:
		p.total = len(ev.Paths)
		p.printf(p.accent, "found %d candidate file(s)\n", p.total)
	case catalog.EventParsed:
		p.done++
		p.printf(p.muted, "[%d/%d] %s\n", p.done, p.total, ev.Path)
	}
}

func (p *progress) finish(summary string, elapsed time.Duration) {
	p.printf(p.ok, "extracted %s in %s\n", summary, elapsed.Round(time.Millisecond))
}

func (p *progress) printf(c *color.Color, format string, args ...any) {
	if p.silent {
		return
	}

	_, _ = c.Fprintf(p.out, format, args...)
}

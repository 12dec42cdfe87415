package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/pathline/internal/core/domain"
	"go.trai.ch/pathline/internal/ui/output"
	"go.trai.ch/pathline/internal/ui/style"
)

// printer writes styled command output. Colors follow the writer's terminal
// and are dropped when NO_COLOR is set.
type printer struct {
	w     io.Writer
	label lipgloss.Style
	value lipgloss.Style
	good  lipgloss.Style
	bad   lipgloss.Style
}

func newPrinter(w io.Writer) *printer {
	r := lipgloss.NewRenderer(w)
	if output.ColorProfile() == termenv.Ascii {
		r.SetColorProfile(termenv.Ascii)
	}
	return &printer{
		w:     w,
		label: style.Label.Renderer(r),
		value: style.Value.Renderer(r),
		good:  style.Good.Renderer(r),
		bad:   style.Bad.Renderer(r),
	}
}

// line writes label/value pairs separated by spaces.
func (p *printer) line(pairs ...string) {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p.label.Render(pairs[i] + "="))
		b.WriteString(p.value.Render(pairs[i+1]))
	}
	_, _ = fmt.Fprintln(p.w, b.String())
}

func (p *printer) ok(msg string) {
	_, _ = fmt.Fprintln(p.w, p.good.Render(style.Check+" "+msg))
}

func (p *printer) fail(msg string) {
	_, _ = fmt.Fprintln(p.w, p.bad.Render(style.Cross+" "+msg))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatPoint(p domain.Point) string {
	return "(" + formatFloat(p[0]) + ", " + formatFloat(p[1]) + ", " + formatFloat(p[2]) + ")"
}

func formatValue(v domain.Value) string {
	if !v.Valid() {
		return "outside"
	}
	if len(v) == 1 {
		return formatFloat(v[0])
	}
	parts := make([]string, len(v))
	for i, c := range v {
		parts[i] = formatFloat(c)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Package console renders operator-facing output.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Printer is the output sink for everything the operator reads.
type Printer interface {
	Banner()
	Header(title string)
	Info(format string, args ...any)
	Success(format string, args ...any)
	Warn(format string, args ...any)
	Fail(format string, args ...any)
	Plain(format string, args ...any)
}

const rule = 60

// ColorPrinter writes colored lines to a writer.
type ColorPrinter struct {
	w       io.Writer
	banner  *color.Color
	header  *color.Color
	info    *color.Color
	success *color.Color
	warn    *color.Color
	fail    *color.Color
}

// NewColorPrinter returns a printer writing to w. With noColor set, or when
// color output is globally disabled, no escape codes are written.
func NewColorPrinter(w io.Writer, noColor bool) *ColorPrinter {
	p := &ColorPrinter{
		w:       w,
		banner:  color.New(color.FgCyan),
		header:  color.New(color.FgMagenta, color.Bold),
		info:    color.New(color.FgBlue),
		success: color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed),
	}
	if noColor {
		for _, c := range []*color.Color{p.banner, p.header, p.info, p.success, p.warn, p.fail} {
			c.DisableColor()
		}
	}
	return p
}

func (p *ColorPrinter) Banner() {
	line := strings.Repeat("=", rule)
	p.println(p.banner, line)
	p.println(p.banner, bannerArt)
	p.println(p.banner, "        GraphQL Introspection & Auto-Query Tool")
	p.println(p.banner, "        Check, Extract, and Execute GraphQL Operations")
	p.println(p.banner, line)
	fmt.Fprintln(p.w)
}

func (p *ColorPrinter) Header(title string) {
	fmt.Fprintln(p.w)
	p.println(p.header, fmt.Sprintf("=== %s ===", strings.ToUpper(title)))
}

func (p *ColorPrinter) Info(format string, args ...any) {
	p.println(p.info, fmt.Sprintf(format, args...))
}

func (p *ColorPrinter) Success(format string, args ...any) {
	p.println(p.success, fmt.Sprintf(format, args...))
}

func (p *ColorPrinter) Warn(format string, args ...any) {
	p.println(p.warn, fmt.Sprintf(format, args...))
}

func (p *ColorPrinter) Fail(format string, args ...any) {
	p.println(p.fail, fmt.Sprintf(format, args...))
}

func (p *ColorPrinter) Plain(format string, args ...any) {
	fmt.Fprintln(p.w, fmt.Sprintf(format, args...))
}

func (p *ColorPrinter) println(c *color.Color, s string) {
	fmt.Fprintln(p.w, c.Sprint(s))
}

const bannerArt = `
   ____  ___  _      __  __       _
  / ___|/ _ \| |     \ \/ /_ __  | | ___  _ __ ___ _ __
 | |  _| | | | |      \  /| '_ \ | |/ _ \| '__/ _ \ '__|
 | |_| | |_| | |___   /  \| |_) || | (_) | | |  __/ |
  \____|\__\_\_____| /_/\_\ .__/ |_|\___/|_|  \___|_|
                          |_|`

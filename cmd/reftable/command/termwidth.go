// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"os"

	"github.com/mgutz/ansi"
	"github.com/rivo/uniseg"
	"golang.org/x/term"
)

// termWidth returns the current terminal width, capped to a sane range for
// progress-bar rendering, falling back to 80 columns when stderr is not a
// terminal.
func termWidth() int {
	w, _, err := term.GetSize(int(os.Stderr.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	if w > 120 {
		return 120
	}
	return w
}

// label colorizes name for a progress-bar prefix when g allows it, and
// reports its on-screen display width (not its byte length) so callers can
// align decorators correctly.
func (g *Globals) label(name string) (string, int) {
	width := uniseg.StringWidth(name)
	if !g.Colorized() {
		return name, width
	}
	return ansi.Color(name, "cyan+b"), width
}

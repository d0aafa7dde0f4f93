package display

import (
	"fmt"
	"io"
)

// Banner returns the program title line.
func Banner(version string) string {
	title := "ReLive-Compress"
	if version != "" {
		title += " " + version
	}
	return render(titleStyle, title) + "\n" +
		render(hintStyle, "Re-encodes new captures in place, oldest untouched.")
}

// PrintBanner writes the banner followed by a blank line.
func PrintBanner(w io.Writer, version string) {
	fmt.Fprintln(w, Banner(version))
	fmt.Fprintln(w)
}

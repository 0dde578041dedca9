package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// FillInitOptionsInteractive prompts the user to confirm or override defaults.
// Empty answers, or a closed input, keep the provided values.
func FillInitOptionsInteractive(in io.Reader, out io.Writer, opts *InitOptions) {
	reader := bufio.NewReader(in)
	ask := func(prompt, def string) string {
		fmt.Fprintf(out, "%s [%s]: ", prompt, def)
		s, _ := reader.ReadString('\n')
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
		return def
	}

	opts.OutputDir = ask("Output directory (empty: <book>.site)", opts.OutputDir)
	opts.Language = ask("Page language (empty: from the book)", opts.Language)

	defNav := "y"
	if opts.DisableNavigation {
		defNav = "n"
	}
	v := strings.ToLower(ask("Add previous/next navigation to chapters? (Y/n)", defNav))
	opts.DisableNavigation = v == "n" || v == "no"
}

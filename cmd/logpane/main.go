package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/TimelordUK/logpane/internal/ui"
)

func main() {
	followFlag := flag.Bool("F", false, "Follow the file for new lines")
	sliceFlag := flag.String("S", "", "Slice range (e.g., 1000-5000, 100-$)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: logpane [-F] [-S range] <file>\n")
		fmt.Fprintf(os.Stderr, "  -F\tFollow mode: tail the file for new lines\n")
		fmt.Fprintf(os.Stderr, "  -S\tSlice range to load (e.g., 1000-5000, 100-$)\n")
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	opts := ui.ModelOptions{
		Filepath:   flag.Arg(0),
		SliceRange: *sliceFlag,
		Follow:     *followFlag,
	}

	model, err := ui.NewModelWithOptions(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Package styles holds the colours shared by the browser and the CLI output.
package styles

import (
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/exp/charmtone"
)

var (
	// Address is the style of instruction addresses.
	Address = lipgloss.NewStyle().Foreground(lipgloss.Color(charmtone.Squid.Hex()))
	// Selected marks the highlighted list entry.
	Selected = lipgloss.NewStyle().Foreground(lipgloss.Color(charmtone.Charple.Hex())).Bold(true)
	// Label is used for branch labels in listings.
	Label = lipgloss.NewStyle().Foreground(lipgloss.Color(charmtone.Zest.Hex()))
	// Error renders translation failures.
	Error = lipgloss.NewStyle().Foreground(lipgloss.Color(charmtone.Cherry.Hex()))
	// Title is the list title.
	Title = lipgloss.NewStyle().Foreground(lipgloss.Color(charmtone.Malibu.Hex())).MarginLeft(2)
	// Menu is the bottom key bar.
	Menu = lipgloss.NewStyle().
		Background(lipgloss.Color(charmtone.Pepper.Hex())).
		Foreground(lipgloss.Color(charmtone.Ash.Hex())).
		Padding(0, 1)
	// Spinner colours the loading indicator.
	Spinner = lipgloss.NewStyle().Foreground(lipgloss.Color(charmtone.Charple.Hex()))
)

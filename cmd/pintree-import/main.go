// Package main provides pintree-import, a command-line client that imports a
// bookmark file into a Pintree collection through the persistence API.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pintree/pintree-admin/internal/config"
)

// Global flags
var (
	jsonOutput bool
	logLevel   string
)

// Styles for output
var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
		Light: "#86b300",
		Dark:  "#c2d94c",
	})
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
		Light: "#f07171",
		Dark:  "#f07178",
	})
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
		Light: "#828c99",
		Dark:  "#6c7680",
	})
	boldStyle = lipgloss.NewStyle().Bold(true)
)

var rootCmd = &cobra.Command{
	Use:   "pintree-import",
	Short: "Import bookmark files into Pintree collections",
	Long: `pintree-import sends a bookmark file to a Pintree persistence API in batches.

It accepts Pintree's own export and generic browser bookmark trees (Chrome,
Firefox). Every run creates a new collection; a failed run keeps whatever it
imported before the failing batch.

Examples:
  pintree-import detect --file bookmarks.json
  pintree-import run --file export.json --name "My links"
  pintree-import run --file chrome.json --name Chrome --api-url https://pintree.example.com --rps 2`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.EnvOr("LOG_LEVEL", "warn"), "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(detectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, failStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

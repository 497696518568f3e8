package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/muesli/ansi"
)

// WelcomeInfo contains information to display in the welcome screen.
type WelcomeInfo struct {
	// Version is the kpsh version string
	Version string
	// Database is the file opened at startup (empty if none)
	Database string
	// Clipboard is the configured clipboard backend
	Clipboard string
}

// tips is the list of tips to display in the welcome screen.
// A "tip of the day" is selected based on the current date.
var tips = []string{
	// Navigation
	"use ls and cd to move around groups like directories",
	"cd .. goes up one group; cd / goes back to the root",
	"paths can have several segments, like cd Work/Projects",
	"quote names with spaces: show 'My Login'",

	// Completion and history
	"press Tab to complete commands, flags and entry names",
	"press Up/Down to navigate command history",
	"run history to see your recent commands",

	// Entries
	"show -s reveals secret fields such as passwords",
	"show --totp prints the current one-time code",
	"cp, cu and cw copy the password, username and URL",
	"run cx to clear the clipboard when you are done",

	// Configuration
	"set clipboard: system in config.yaml to use the system clipboard",
	"customize the prompt in config.yaml; {group} is the current group",
	"set logLevel: debug in config.yaml for troubleshooting",

	// General tips
	"run help <command> to see its flags",
	"press Ctrl+D on an empty line to exit",
}

// ASCII art logo for kpsh
var kpshLogo = []string{
	" _                _     ",
	"| | ___ __  ___| |__  ",
	"| |/ / '_ \\/ __| '_ \\ ",
	"|   <| |_) \\__ \\ | | |",
	"|_|\\_\\ .__/|___/_| |_|",
	"     |_|              ",
}

// getTipOfTheDay returns a tip based on the given date.
// The same tip is shown for the entire day, changing at midnight.
func getTipOfTheDay(now time.Time) string {
	if len(tips) == 0 {
		return ""
	}
	return tips[now.YearDay()%len(tips)]
}

// RenderWelcome renders the welcome screen.
// The welcome screen displays the kpsh logo on the left and session info on the right.
func (r *Renderer) RenderWelcome(info WelcomeInfo, now time.Time) {
	w := r.out
	termWidth := r.termWidth()
	titleStyle := r.styles.Accent
	logoStyle := r.styles.Accent.UnsetBold()
	labelStyle := r.styles.Label
	dimStyle := r.styles.Masked

	// Calculate layout dimensions
	logoWidth := 0
	for _, line := range kpshLogo {
		logoWidth = max(logoWidth, ansi.PrintableRuneWidth(line))
	}
	minGap := 4
	maxInfoWidth := 40

	// Build info lines
	var infoLines []string
	infoLines = append(infoLines, titleStyle.Render("The KeePass Shell"))
	infoLines = append(infoLines, "")

	if info.Version != "" && info.Version != "dev" {
		infoLines = append(infoLines, labelStyle.Render("version:   ")+info.Version)
	} else if info.Version == "dev" {
		infoLines = append(infoLines, labelStyle.Render("version:   ")+dimStyle.Render("development"))
	}

	if info.Database != "" {
		infoLines = append(infoLines, labelStyle.Render("database:  ")+info.Database)
	} else {
		infoLines = append(infoLines, labelStyle.Render("database:  ")+dimStyle.Render("none, use open <file>"))
	}

	if info.Clipboard != "" {
		infoLines = append(infoLines, labelStyle.Render("clipboard: ")+info.Clipboard)
	}

	numLines := max(len(kpshLogo), len(infoLines))

	infoWidth := min(termWidth-logoWidth-minGap, maxInfoWidth)
	tip := getTipOfTheDay(now)

	if infoWidth < 20 {
		// Terminal too narrow, just show info without logo
		for _, line := range infoLines {
			fmt.Fprintln(w, line)
		}
		fmt.Fprintln(w)
		if tip != "" {
			fmt.Fprintln(w, dimStyle.Render("tip: "+tip))
		}
		fmt.Fprintln(w)
		return
	}

	var output strings.Builder
	output.WriteString("\n")

	for i := 0; i < numLines; i++ {
		logoLine := ""
		if i < len(kpshLogo) {
			logoLine = kpshLogo[i]
		}
		padding := strings.Repeat(" ", logoWidth-ansi.PrintableRuneWidth(logoLine))
		logoLine = logoStyle.Render(logoLine) + padding

		var infoLine string
		if i < len(infoLines) {
			infoLine = infoLines[i]
		}

		gap := strings.Repeat(" ", minGap)
		output.WriteString(strings.TrimRight(logoLine+gap+infoLine, " ") + "\n")
	}

	output.WriteString("\n")
	if tip != "" {
		output.WriteString(dimStyle.Render("tip: "+tip) + "\n")
	}
	output.WriteString("\n")

	fmt.Fprint(w, output.String())
}

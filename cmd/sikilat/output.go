package main

import (
	"fmt"
	"os"
)

// Status lines go to stderr so stdout stays machine-readable; the records
// subcommands are meant to be piped into jq.

const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + ansiReset
}

func printMark(color, mark, format string, args ...any) {
	fmt.Fprintln(os.Stderr, colorize(color, mark+" "+fmt.Sprintf(format, args...)))
}

func printSuccess(format string, args ...any) { printMark(ansiGreen, "✓", format, args...) }

func printError(format string, args ...any) { printMark(ansiRed, "✗", format, args...) }

func printWarning(format string, args ...any) { printMark(ansiYellow, "⚠", format, args...) }

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "  %s %s\n", colorize(ansiBold, label+":"), val)
}

package formatter

import "fmt"

// ANSI color codes for terminal output
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"

	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Cyan   = "\033[36m"
	White  = "\033[37m"
	Gray   = "\033[90m"
)

func Colorize(color, text string) string {
	return fmt.Sprintf("%s%s%s", color, text, Reset)
}

func BoldColorize(color, text string) string {
	return fmt.Sprintf("%s%s%s%s", Bold, color, text, Reset)
}

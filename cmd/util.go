package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
)

var (
	bold  = color.New(color.Bold).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()

	greenCheck = color.GreenString("✔")
	redCross   = color.RedString("✖")
)

// BeQuietError signals that the failure was already reported to the user.
type BeQuietError struct{}

func (BeQuietError) Error() string { return "" }

// logError reports err with the correlation ID of the failed request.
func logError(err error, correlation, msg string) error {
	ev := log.Error().Err(err)
	if correlation != "" {
		ev = ev.Str("correlation_id", correlation)
	}
	ev.Msgf("%s %s", redCross, msg)
	return BeQuietError{}
}

func logSuccess(format string, args ...any) {
	log.Info().Msgf("%s %s", greenCheck, fmt.Sprintf(format, args...))
}

func applyTableFormat(t table.Writer) {
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateRows = false
}

func colorVerdict(v core.Verdict) string {
	switch v {
	case core.VerdictApproved:
		return color.New(color.FgGreen, color.Bold).Sprint(v)
	case core.VerdictRejected:
		return color.New(color.FgRed, color.Bold).Sprint(v)
	case core.VerdictHeld:
		return color.New(color.FgYellow, color.Bold).Sprint(v)
	default:
		return string(v)
	}
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

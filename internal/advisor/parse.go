package advisor

import (
	"strings"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
)

var verdictWords = map[string]core.Verdict{
	"approved": core.VerdictApproved,
	"rejected": core.VerdictRejected,
	"held":     core.VerdictHeld,
	"승인":       core.VerdictApproved,
	"거절":       core.VerdictRejected,
	"보류":       core.VerdictHeld,
}

// ParseResponse parses model output of the form
//
//	Decision: Approved
//	Reason: <text>
//
// Korean keys (결정, 사유) and verdicts (승인, 거절, 보류) and a leading "- " are accepted.
// Lines after Reason continue the reason. Anything else is rejected with an
// UnparsableResponseError; output is never guessed at.
func ParseResponse(raw string) (core.Verdict, string, error) {
	fail := func(reason string) (core.Verdict, string, error) {
		return "", "", core.UnparsableResponseError{Raw: raw, Reason: reason}
	}

	var (
		verdict    core.Verdict
		reason     []string
		inReason   bool
		seenReason bool
	)

	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, isKey := splitKey(line)
		switch {
		case isKey && key == "decision":
			if verdict != "" {
				return fail("decision given more than once")
			}
			v, ok := verdictWords[strings.ToLower(value)]
			if !ok {
				return fail("unknown decision '" + value + "'")
			}
			verdict = v
			inReason = false
		case isKey && key == "reason":
			if seenReason {
				return fail("reason given more than once")
			}
			seenReason = true
			inReason = true
			if value != "" {
				reason = append(reason, value)
			}
		case inReason:
			reason = append(reason, line)
		default:
			return fail("unexpected line '" + line + "'")
		}
	}

	if verdict == "" {
		return fail("missing decision")
	}
	text := strings.TrimSpace(strings.Join(reason, " "))
	if text == "" {
		return fail("missing reason")
	}
	return verdict, text, nil
}

// splitKey recognizes "Decision:", "Reason:", "결정:" and "사유:" with an optional "- " prefix.
func splitKey(line string) (key, value string, ok bool) {
	line = strings.TrimSpace(strings.TrimPrefix(line, "- "))
	name, value, found := strings.Cut(line, ":")
	if !found {
		return "", "", false
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "decision", "결정":
		return "decision", strings.TrimSpace(value), true
	case "reason", "사유":
		return "reason", strings.TrimSpace(value), true
	}
	return "", "", false
}

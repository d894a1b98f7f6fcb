package prompt

import (
    "fmt"
    "strings"
)

// maxOutputChars bounds how much leaderboard text is sent to the model.
const maxOutputChars = 12000

// GetSystemPrompt gives the model its role for leaderboard summaries.
func GetSystemPrompt() string {
    return `You are a software engineering practices reviewer. You receive the text output of the SLIM leaderboard tool, which scores repositories against NASA SLIM best practices (governance, documentation, security, testing, licensing).

Requirements:
- Reply in plain text, no markdown headings, no code fences.
- At most 5 short sentences.
- Name the strongest area and the weakest area, then the single most valuable next step.
- Only use facts present in the output. If the output is empty or unreadable, say so.`
}

// GetUserPrompt wraps the leaderboard output for one target.
func GetUserPrompt(target, format, output string) string {
    output = strings.TrimSpace(output)
    if len(output) > maxOutputChars {
        output = output[:maxOutputChars] + "\n[truncated]"
    }
    return fmt.Sprintf("Target: %s\nOutput format: %s\n\nLeaderboard output:\n%s", target, format, output)
}

package leaderboard

import "strings"

// Target is one entry of the config file passed to slim-leaderboard.
type Target struct {
	Type TargetType `json:"type"`
	Name string     `json:"name"`
}

// InvocationConfig is serialised to the JSON config file of one run.
type InvocationConfig struct {
	Targets []Target `json:"targets"`
}

// InvocationFlags are the command line switches of one run.
type InvocationFlags struct {
	OutputFormat OutputFormat
	Verbose      bool
	Emoji        bool
	Unsorted     bool
}

// Args renders the flags followed by the config path as the final positional argument.
func (f InvocationFlags) Args(configPath string) []string {
	args := []string{"--output_format", string(f.OutputFormat)}
	if f.Verbose {
		args = append(args, "--verbose")
	}
	if f.Emoji {
		args = append(args, "--emoji")
	}
	if f.Unsorted {
		args = append(args, "--unsorted")
	}
	return append(args, configPath)
}

// RunRequest untuk Runner
type RunRequest struct {
	InvocationID string
	Config       InvocationConfig
	Flags        InvocationFlags
}

// RunResult hasil dari Runner
type RunResult struct {
	Output      string // stdout
	ErrorOutput string // stderr
	ExitCode    int
	DurationMS  int64
	Args        []string
	ConfigPath  string // sudah dihapus saat RunResult dikembalikan
}

func (r RunResult) Succeeded() bool { return r.ExitCode == 0 }

// FailureText picks the text reported for a failed run: stderr, then stdout,
// then a generic message.
func (r RunResult) FailureText() string {
	if s := strings.TrimSpace(r.ErrorOutput); s != "" {
		return s
	}
	if s := strings.TrimSpace(r.Output); s != "" {
		return s
	}
	return "Unknown error occurred"
}

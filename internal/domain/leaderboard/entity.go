package leaderboard

import (
	"fmt"
	"strings"
)

// TargetType enum
type TargetType string

const (
	TargetRepository   TargetType = "repository"
	TargetOrganization TargetType = "organization"
)

// OutputFormat enum, nilai sesuai pilihan --output_format di slim-leaderboard
type OutputFormat string

const (
	FormatTree     OutputFormat = "TREE"
	FormatTable    OutputFormat = "TABLE"
	FormatMarkdown OutputFormat = "MARKDOWN"
	FormatPlain    OutputFormat = "PLAIN"
)

// Defaults used when the request leaves a field empty.
const (
	DefaultTargetType   = TargetRepository
	DefaultOutputFormat = FormatTable
)

func (t TargetType) Valid() bool {
	switch t {
	case TargetRepository, TargetOrganization:
		return true
	}
	return false
}

func (f OutputFormat) Valid() bool {
	switch f {
	case FormatTree, FormatTable, FormatMarkdown, FormatPlain:
		return true
	}
	return false
}

// AnalysisRequest is one validated analyze call. Build it with NewAnalysisRequest.
type AnalysisRequest struct {
	RepositoryURL string
	TargetType    TargetType
	OutputFormat  OutputFormat
	Verbose       bool
	Emoji         bool
	Unsorted      bool
	Explain       bool
}

// RawAnalysisRequest is the request as it arrives over the wire, before defaults.
type RawAnalysisRequest struct {
	RepositoryURL string `json:"repository_url"`
	TargetType    string `json:"target_type"`
	OutputFormat  string `json:"output_format"`
	Verbose       bool   `json:"verbose"`
	Emoji         bool   `json:"emoji"`
	Unsorted      bool   `json:"unsorted"`
	Explain       bool   `json:"explain"`
}

// NewAnalysisRequest applies defaults and validates the raw request.
// Errors are *Error with KindValidation.
func NewAnalysisRequest(raw RawAnalysisRequest) (AnalysisRequest, error) {
	url := strings.TrimSpace(raw.RepositoryURL)
	if url == "" {
		return AnalysisRequest{}, ErrRepositoryURLRequired
	}

	targetType := DefaultTargetType
	if v := strings.TrimSpace(raw.TargetType); v != "" {
		targetType = TargetType(strings.ToLower(v))
	}
	if !targetType.Valid() {
		return AnalysisRequest{}, Validation(fmt.Sprintf(
			"Invalid target type: %s (allowed: repository, organization)", raw.TargetType))
	}

	format := DefaultOutputFormat
	if v := strings.TrimSpace(raw.OutputFormat); v != "" {
		format = OutputFormat(strings.ToUpper(v))
	}
	if !format.Valid() {
		return AnalysisRequest{}, Validation(fmt.Sprintf(
			"Invalid output format: %s (allowed: TREE, TABLE, MARKDOWN, PLAIN)", raw.OutputFormat))
	}

	return AnalysisRequest{
		RepositoryURL: url,
		TargetType:    targetType,
		OutputFormat:  format,
		Verbose:       raw.Verbose,
		Emoji:         raw.Emoji,
		Unsorted:      raw.Unsorted,
		Explain:       raw.Explain,
	}, nil
}

// Flags returns the command line flags for this request.
func (r AnalysisRequest) Flags() InvocationFlags {
	return InvocationFlags{
		OutputFormat: r.OutputFormat,
		Verbose:      r.Verbose,
		Emoji:        r.Emoji,
		Unsorted:     r.Unsorted,
	}
}

// Config returns the invocation config holding this request's single target.
func (r AnalysisRequest) Config() InvocationConfig {
	return InvocationConfig{
		Targets: []Target{{Type: r.TargetType, Name: r.RepositoryURL}},
	}
}

// AnalysisResult is the success payload of /api/analyze.
type AnalysisResult struct {
	Success     bool         `json:"success"`
	Output      string       `json:"output"`
	TargetURL   string       `json:"target_url"`
	TargetType  TargetType   `json:"target_type"`
	Format      OutputFormat `json:"format"`
	RunID       string       `json:"run_id,omitempty"`
	ArtifactURL string       `json:"artifact_url,omitempty"`
	Insight     string       `json:"insight,omitempty"`
}

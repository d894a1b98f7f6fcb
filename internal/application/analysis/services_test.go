package analysis

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/slim-leaderboard-web/internal/application"
	domai "github.com/bryanwahyu/slim-leaderboard-web/internal/domain/ai"
	domain "github.com/bryanwahyu/slim-leaderboard-web/internal/domain/leaderboard"
	"github.com/bryanwahyu/slim-leaderboard-web/internal/domain/runs"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls []domain.RunRequest
	run   func(req domain.RunRequest) (domain.RunResult, error)
}

func (f *fakeRunner) Run(_ context.Context, req domain.RunRequest) (domain.RunResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return f.run(req)
}

func output(text string) func(domain.RunRequest) (domain.RunResult, error) {
	return func(req domain.RunRequest) (domain.RunResult, error) {
		return domain.RunResult{Output: text, Args: req.Flags.Args("/tmp/cfg.json")}, nil
	}
}

type fakeRuns struct {
	saved []*runs.Run
	err   error
}

func (f *fakeRuns) Save(_ context.Context, r *runs.Run) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, r)
	return nil
}

func (f *fakeRuns) Latest(_ context.Context, limit int) ([]*runs.Run, error) {
	if limit < len(f.saved) {
		return f.saved[:limit], nil
	}
	return f.saved, nil
}

type fakeStore struct {
	key, contentType string
	data             []byte
	err              error
}

func (f *fakeStore) Put(_ context.Context, key, contentType string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.key, f.contentType, f.data = key, contentType, data
	return "http://minio:9000/slim-leaderboard/" + key, nil
}

type fakeInsights struct {
	called bool
	text   string
	err    error
}

func (f *fakeInsights) Summarize(_ context.Context, _, _, _ string) (string, error) {
	f.called = true
	return f.text, f.err
}

func tokenSet() bool   { return true }
func tokenUnset() bool { return false }

var repoURL = "https://github.com/org/repo"

func TestAnalyzeSuccess(t *testing.T) {
	runner := &fakeRunner{run: output("RANK  NAME  SCORE\n1  repo  92")}
	svc := &Service{Runner: runner, TokenConfigured: tokenSet}

	res, err := svc.Analyze(context.Background(), domain.RawAnalysisRequest{RepositoryURL: repoURL})
	require.NoError(t, err)

	assert.Equal(t, domain.AnalysisResult{
		Success:    true,
		Output:     "RANK  NAME  SCORE\n1  repo  92",
		TargetURL:  repoURL,
		TargetType: "repository",
		Format:     "TABLE",
	}, res)

	require.Len(t, runner.calls, 1)
	call := runner.calls[0]
	assert.NotEmpty(t, call.InvocationID)
	assert.Equal(t, []domain.Target{{Type: "repository", Name: repoURL}}, call.Config.Targets)
	assert.Equal(t, domain.InvocationFlags{OutputFormat: "TABLE"}, call.Flags)
}

func TestAnalyzePassesFlags(t *testing.T) {
	runner := &fakeRunner{run: output("ok")}
	svc := &Service{Runner: runner, TokenConfigured: tokenSet}

	_, err := svc.Analyze(context.Background(), domain.RawAnalysisRequest{
		RepositoryURL: "https://github.com/nasa-ammos",
		TargetType:    "organization",
		OutputFormat:  "markdown",
		Verbose:       true,
		Emoji:         true,
	})
	require.NoError(t, err)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, domain.InvocationFlags{OutputFormat: "MARKDOWN", Verbose: true, Emoji: true}, runner.calls[0].Flags)
	assert.Equal(t, domain.TargetOrganization, runner.calls[0].Config.Targets[0].Type)
}

func TestAnalyzeValidationRunsNothing(t *testing.T) {
	runner := &fakeRunner{run: output("never")}
	svc := &Service{Runner: runner, TokenConfigured: tokenSet}

	for name, raw := range map[string]domain.RawAnalysisRequest{
		"missing url": {},
		"blank url":   {RepositoryURL: "   "},
		"bad type":    {RepositoryURL: repoURL, TargetType: "gist"},
		"bad format":  {RepositoryURL: repoURL, OutputFormat: "XML"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Analyze(context.Background(), raw)
			require.Error(t, err)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
		})
	}
	assert.Empty(t, runner.calls)
}

func TestAnalyzeWithoutTokenRunsNothing(t *testing.T) {
	runner := &fakeRunner{run: output("never")}
	svc := &Service{Runner: runner, TokenConfigured: tokenUnset}

	_, err := svc.Analyze(context.Background(), domain.RawAnalysisRequest{RepositoryURL: repoURL})
	require.Error(t, err)
	assert.Equal(t, domain.KindConfiguration, domain.KindOf(err))
	assert.Equal(t, http.StatusInternalServerError, domain.KindOf(err).HTTPStatus())
	assert.Empty(t, runner.calls)
}

func TestAnalyzeFailureText(t *testing.T) {
	cases := map[string]struct {
		result domain.RunResult
		want   string
	}{
		"stderr preferred": {domain.RunResult{ExitCode: 2, Output: "out", ErrorOutput: "401 Bad credentials\n"}, "Analysis failed: 401 Bad credentials"},
		"stdout fallback":  {domain.RunResult{ExitCode: 1, Output: "repository not found\n"}, "Analysis failed: repository not found"},
		"generic fallback": {domain.RunResult{ExitCode: 1}, "Analysis failed: Unknown error occurred"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			runner := &fakeRunner{run: func(domain.RunRequest) (domain.RunResult, error) { return tc.result, nil }}
			svc := &Service{Runner: runner, TokenConfigured: tokenSet}

			_, err := svc.Analyze(context.Background(), domain.RawAnalysisRequest{RepositoryURL: repoURL})
			var derr *domain.Error
			require.True(t, errors.As(err, &derr))
			assert.Equal(t, domain.KindExecution, derr.Kind)
			assert.Equal(t, tc.want, derr.Message)
		})
	}
}

func TestAnalyzeRunnerErrors(t *testing.T) {
	cases := map[string]struct {
		err    error
		kind   domain.Kind
		status int
	}{
		"timeout":   {domain.ErrRunTimeout, domain.KindTimeout, http.StatusRequestTimeout},
		"not found": {domain.ErrCommandNotFound, domain.KindDependencyUnavailable, http.StatusInternalServerError},
		"other":     {errors.New("disk full"), domain.KindInternal, http.StatusInternalServerError},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			history := &fakeRuns{}
			runner := &fakeRunner{run: func(domain.RunRequest) (domain.RunResult, error) {
				return domain.RunResult{}, tc.err
			}}
			svc := &Service{Runner: runner, Runs: history, TokenConfigured: tokenSet}

			_, err := svc.Analyze(context.Background(), domain.RawAnalysisRequest{RepositoryURL: repoURL})
			require.Error(t, err)
			assert.Equal(t, tc.kind, domain.KindOf(err))
			assert.Equal(t, tc.status, domain.KindOf(err).HTTPStatus())
			require.Len(t, history.saved, 1)
		})
	}
}

func TestAnalyzeTimeoutMessage(t *testing.T) {
	runner := &fakeRunner{run: func(domain.RunRequest) (domain.RunResult, error) {
		return domain.RunResult{}, domain.ErrRunTimeout
	}}
	history := &fakeRuns{}
	svc := &Service{Runner: runner, Runs: history, TokenConfigured: tokenSet}

	_, err := svc.Analyze(context.Background(), domain.RawAnalysisRequest{RepositoryURL: repoURL})
	var derr *domain.Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "Analysis timed out. Please try again.", derr.Message)
	assert.Equal(t, runs.StatusTimeout, history.saved[0].Status)
}

func TestAnalyzeRecordsHistoryAndArchives(t *testing.T) {
	at := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	history := &fakeRuns{}
	store := &fakeStore{}
	svc := &Service{
		Runner:          &fakeRunner{run: output("| rank | name |")},
		Runs:            history,
		Artifacts:       store,
		Clock:           application.FixedClock(at),
		TokenConfigured: tokenSet,
	}

	res, err := svc.Analyze(context.Background(), domain.RawAnalysisRequest{RepositoryURL: repoURL, OutputFormat: "MARKDOWN"})
	require.NoError(t, err)

	require.Len(t, history.saved, 1)
	saved := history.saved[0]
	assert.Equal(t, string(saved.ID), res.RunID)
	assert.Equal(t, runs.StatusSuccess, saved.Status)
	assert.Equal(t, repoURL, saved.TargetURL)
	assert.Equal(t, "MARKDOWN", saved.OutputFormat)
	assert.Equal(t, at, saved.TriggeredAt)

	assert.Equal(t, "runs/2026/10/15/"+res.RunID+".md", store.key)
	assert.Equal(t, "text/markdown; charset=utf-8", store.contentType)
	assert.Equal(t, "| rank | name |", string(store.data))
	assert.Equal(t, "http://minio:9000/slim-leaderboard/"+store.key, res.ArtifactURL)
	assert.Equal(t, res.ArtifactURL, saved.ArtifactURL)
}

func TestAnalyzeOptionalFailuresDoNotFailRequest(t *testing.T) {
	svc := &Service{
		Runner:          &fakeRunner{run: output("ok")},
		Runs:            &fakeRuns{err: errors.New("db down")},
		Artifacts:       &fakeStore{err: errors.New("bucket gone")},
		Insights:        &fakeInsights{err: domai.ErrQuotaExceeded},
		TokenConfigured: tokenSet,
	}

	res, err := svc.Analyze(context.Background(), domain.RawAnalysisRequest{RepositoryURL: repoURL, Explain: true})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "ok", res.Output)
	assert.Empty(t, res.RunID)
	assert.Empty(t, res.ArtifactURL)
	assert.Empty(t, res.Insight)
}

func TestAnalyzeExplain(t *testing.T) {
	insights := &fakeInsights{text: "The repository follows most SLIM best practices."}
	svc := &Service{Runner: &fakeRunner{run: output("ok")}, Insights: insights, TokenConfigured: tokenSet}

	res, err := svc.Analyze(context.Background(), domain.RawAnalysisRequest{RepositoryURL: repoURL})
	require.NoError(t, err)
	assert.False(t, insights.called)
	assert.Empty(t, res.Insight)

	res, err = svc.Analyze(context.Background(), domain.RawAnalysisRequest{RepositoryURL: repoURL, Explain: true})
	require.NoError(t, err)
	assert.True(t, insights.called)
	assert.Equal(t, insights.text, res.Insight)
}

func TestLatest(t *testing.T) {
	svc := &Service{}
	_, err := svc.Latest(context.Background(), 10)
	assert.ErrorIs(t, err, ErrHistoryDisabled)

	history := &fakeRuns{saved: []*runs.Run{{ID: "a"}, {ID: "b"}}}
	svc.Runs = history
	list, err := svc.Latest(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, runs.ID("a"), list[0].ID)
}

package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/slim-leaderboard-web/internal/application"
	domai "github.com/bryanwahyu/slim-leaderboard-web/internal/domain/ai"
	domain "github.com/bryanwahyu/slim-leaderboard-web/internal/domain/leaderboard"
	"github.com/bryanwahyu/slim-leaderboard-web/internal/domain/runs"
)

// Service implements the analyze use case.
// Service is designed to be used concurrently and is thread-safe.
// Runs, Artifacts and Insights are optional.
type Service struct {
	Runner    domain.Runner
	Runs      runs.Repository
	Artifacts domain.ArtifactStore
	Insights  domai.Client
	Clock     application.Clock

	// TokenConfigured reports whether GITHUB_TOKEN is available to the runner.
	TokenConfigured func() bool
}

// Analyze validates the request, runs slim-leaderboard once and returns the captured output.
// Every error is a *domain.Error.
func (s *Service) Analyze(ctx context.Context, raw domain.RawAnalysisRequest) (domain.AnalysisResult, error) {
	req, err := domain.NewAnalysisRequest(raw)
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	if s.TokenConfigured == nil || !s.TokenConfigured() {
		return domain.AnalysisResult{}, domain.ErrTokenNotConfigured
	}

	id := uuid.NewString()
	log := zap.L().With(
		zap.String("run_id", id),
		zap.String("target_url", req.RepositoryURL),
		zap.String("target_type", string(req.TargetType)),
	)
	now := s.now()

	res, runErr := s.Runner.Run(ctx, domain.RunRequest{
		InvocationID: id,
		Config:       req.Config(),
		Flags:        req.Flags(),
	})
	log = log.With(zap.Strings("args", res.Args), zap.Int64("duration_ms", res.DurationMS))

	if runErr != nil {
		err := classifyRunError(runErr)
		log.Error("leaderboard run failed", zap.Error(runErr))
		s.record(ctx, log, &runs.Run{
			ID: runs.ID(id), TriggeredAt: now, ExitCode: -1, DurationMS: res.DurationMS,
			Status: statusFromKind(domain.KindOf(err)),
		}, req)
		return domain.AnalysisResult{}, err
	}

	if !res.Succeeded() {
		msg := res.FailureText()
		log.Error("leaderboard exited with non-zero status",
			zap.Int("exit_code", res.ExitCode), zap.String("error_output", msg))
		s.record(ctx, log, &runs.Run{
			ID: runs.ID(id), TriggeredAt: now, ExitCode: res.ExitCode,
			DurationMS: res.DurationMS, Status: runs.StatusFailed,
		}, req)
		return domain.AnalysisResult{}, &domain.Error{
			Kind:    domain.KindExecution,
			Message: "Analysis failed: " + msg,
		}
	}

	log.Info("analysis completed successfully")

	result := domain.AnalysisResult{
		Success:    true,
		Output:     res.Output,
		TargetURL:  req.RepositoryURL,
		TargetType: req.TargetType,
		Format:     req.OutputFormat,
	}
	result.ArtifactURL = s.archive(ctx, log, id, now.Format("2006/01/02"), req.OutputFormat, res.Output)
	if s.record(ctx, log, &runs.Run{
		ID: runs.ID(id), TriggeredAt: now, ExitCode: 0, DurationMS: res.DurationMS,
		Status: runs.StatusSuccess, ArtifactURL: result.ArtifactURL,
	}, req) {
		result.RunID = id
	}
	if req.Explain {
		result.Insight = s.explain(ctx, log, req, res.Output)
	}
	return result, nil
}

// Latest returns the most recent runs, or ErrHistoryDisabled without a repository.
func (s *Service) Latest(ctx context.Context, limit int) ([]*runs.Run, error) {
	if s.Runs == nil {
		return nil, ErrHistoryDisabled
	}
	return s.Runs.Latest(ctx, limit)
}

// ErrHistoryDisabled is returned by Latest when no run repository is configured.
var ErrHistoryDisabled = errors.New("run history is not enabled")

// record saves the run when history is enabled. It reports whether the run was saved.
func (s *Service) record(ctx context.Context, log *zap.Logger, run *runs.Run, req domain.AnalysisRequest) bool {
	if s.Runs == nil {
		return false
	}
	run.TargetURL = req.RepositoryURL
	run.TargetType = string(req.TargetType)
	run.OutputFormat = string(req.OutputFormat)
	// simpan riwayat tetap jalan walau request sudah dibatalkan client
	if err := s.Runs.Save(context.WithoutCancel(ctx), run); err != nil {
		log.Warn("failed to save run history", zap.Error(err))
		return false
	}
	return true
}

func (s *Service) archive(ctx context.Context, log *zap.Logger, id, day string, format domain.OutputFormat, output string) string {
	if s.Artifacts == nil {
		return ""
	}
	ext, contentType := "txt", "text/plain; charset=utf-8"
	if format == domain.FormatMarkdown {
		ext, contentType = "md", "text/markdown; charset=utf-8"
	}
	key := fmt.Sprintf("runs/%s/%s.%s", day, id, ext)
	url, err := s.Artifacts.Put(ctx, key, contentType, []byte(output))
	if err != nil {
		log.Warn("failed to archive output", zap.String("key", key), zap.Error(err))
		return ""
	}
	return url
}

func (s *Service) explain(ctx context.Context, log *zap.Logger, req domain.AnalysisRequest, output string) string {
	if s.Insights == nil {
		return ""
	}
	insight, err := s.Insights.Summarize(ctx, req.RepositoryURL, string(req.OutputFormat), output)
	if err != nil {
		if errors.Is(err, domai.ErrQuotaExceeded) {
			log.Warn("insight skipped: ai quota exceeded")
		} else {
			log.Warn("insight failed", zap.Error(err))
		}
		return ""
	}
	return insight
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return application.SystemClock{}.Now()
	}
	return s.Clock.Now()
}

// classifyRunError converts runner errors into client-facing domain errors.
func classifyRunError(err error) error {
	switch {
	case errors.Is(err, domain.ErrRunTimeout):
		return &domain.Error{Kind: domain.KindTimeout, Message: "Analysis timed out. Please try again.", Err: err}
	case errors.Is(err, domain.ErrCommandNotFound):
		return &domain.Error{
			Kind:    domain.KindDependencyUnavailable,
			Message: fmt.Sprintf("Unable to start slim-leaderboard: %v", err),
		}
	default:
		return &domain.Error{Kind: domain.KindInternal, Message: fmt.Sprintf("Internal server error: %v", err)}
	}
}

func statusFromKind(k domain.Kind) runs.Status {
	if k == domain.KindTimeout {
		return runs.StatusTimeout
	}
	return runs.StatusError
}

package analyses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"skillgap-backend/internal/llm"
	"skillgap-backend/internal/shared/metrics"
	"skillgap-backend/internal/shared/telemetry"
)

// Service runs the match analysis: one completion call, strict
// validation, no retries, no partial results.
type Service struct {
	LLM llm.Client
}

// Analyze sends résumé and job-description text to the LLM and returns
// the validated result.
func (s *Service) Analyze(ctx context.Context, resumeText, jobDescription string) (Result, error) {
	if s.LLM == nil {
		return Result{}, errors.New("llm client is required")
	}

	metrics.IncAnalysisRequested()
	start := time.Now()

	raw, err := s.LLM.Analyze(ctx, llm.MatchInput{
		ResumeText:     resumeText,
		JobDescription: jobDescription,
	})
	if err != nil {
		metrics.IncAnalysisFailed()
		if errors.Is(err, llm.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			return Result{}, fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
		}
		return Result{}, err
	}

	result, err := ParseResult(raw)
	if err != nil {
		metrics.IncAnalysisFailed()
		telemetry.Warn("analysis.result.invalid", map[string]any{
			"err": err.Error(),
		})
		return Result{}, err
	}

	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
	return result, nil
}

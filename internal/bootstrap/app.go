package bootstrap

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"skillgap-backend/internal/analyses"
	"skillgap-backend/internal/extract"
	"skillgap-backend/internal/identity"
	"skillgap-backend/internal/llm"
	openai "skillgap-backend/internal/llm/openai"
	"skillgap-backend/internal/ocr"
	"skillgap-backend/internal/shared/config"
	"skillgap-backend/internal/shared/server"
	"skillgap-backend/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	Verifier        identity.Verifier
	Extractor       *extract.Extractor
	AnalysisService *analyses.Service
	AnalysisHandler *analyses.Handler
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	ctx := context.Background()

	verifier := buildVerifier(cfg)
	extractor := &extract.Extractor{OCR: buildOCRChain(ctx, cfg)}
	llmClient, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}

	analysisSvc := &analyses.Service{LLM: llmClient}
	analysisHandler := analyses.NewHandler(analysisSvc, extractor, analyses.Limits{
		MaxUploadBytes:    cfg.MaxUploadBytes,
		MaxJobDescription: cfg.MaxJobDescription,
		MinExtractChars:   cfg.MinExtractChars,
	})

	app := &App{
		Config:          cfg,
		Verifier:        verifier,
		Extractor:       extractor,
		AnalysisService: analysisSvc,
		AnalysisHandler: analysisHandler,
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		Verifier:        verifier,
		AnalysisHandler: analysisHandler,
	})

	return app, nil
}

func buildVerifier(cfg config.Config) identity.Verifier {
	if cfg.AuthDisabled && cfg.Env != "production" {
		telemetry.Warn("bootstrap.auth.disabled", map[string]any{"env": cfg.Env})
		return identity.StaticVerifier{}
	}
	return identity.NewLookupVerifier(cfg.IdentityAPIKey)
}

func buildOCRChain(ctx context.Context, cfg config.Config) ocr.Engine {
	var engines []ocr.Engine

	vision := ocr.NewVisionEngine(cfg.OpenAIAPIKey, cfg.OpenAIAPIBase, cfg.OpenAIModel,
		time.Duration(cfg.OpenAITimeoutSeconds)*time.Second)
	if vision != nil {
		engines = append(engines, vision)
	}

	if cfg.OCRTextractEnabled {
		textract, err := ocr.NewTextractEngine(ctx, cfg.AWSRegion)
		if err != nil {
			telemetry.Warn("bootstrap.textract.unavailable", map[string]any{"err": err.Error()})
		} else {
			engines = append(engines, textract)
		}
	}

	if len(engines) == 0 {
		// Image uploads will fail with actionable guidance.
		return nil
	}
	return ocr.NewChain(engines...)
}

func buildLLM(cfg config.Config) (llm.Client, error) {
	if cfg.OpenAIAPIKey == "" {
		telemetry.Warn("bootstrap.llm.not_configured", map[string]any{})
		return llm.PlaceholderClient{}, nil
	}
	return openai.NewClient(openai.Options{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIAPIBase,
		Model:       cfg.OpenAIModel,
		MaxTokens:   cfg.OpenAIMaxTokens,
		Temperature: cfg.OpenAITemperature,
		Timeout:     time.Duration(cfg.OpenAITimeoutSeconds) * time.Second,
	})
}

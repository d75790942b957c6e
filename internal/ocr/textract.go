package ocr

import (
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
)

// TextractEngine extracts text from images with AWS Textract.
type TextractEngine struct {
	client *textract.Client
}

// NewTextractEngine builds a TextractEngine with the default AWS config chain.
func NewTextractEngine(ctx context.Context, region string) (*TextractEngine, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if strings.TrimSpace(region) != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &TextractEngine{client: textract.NewFromConfig(cfg)}, nil
}

// Name identifies the engine in logs.
func (e *TextractEngine) Name() string { return "textract" }

// ExtractText runs DetectDocumentText and joins LINE blocks.
func (e *TextractEngine) ExtractText(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("empty image data")
	}

	out, err := e.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{Bytes: image},
	})
	if err != nil {
		return "", fmt.Errorf("textract detect: %w", err)
	}

	var lines []string
	for _, block := range out.Blocks {
		if block.BlockType != types.BlockTypeLine {
			continue
		}
		if block.Text != nil && strings.TrimSpace(*block.Text) != "" {
			lines = append(lines, *block.Text)
		}
	}
	if len(lines) == 0 {
		return "", ErrNoText
	}
	return strings.Join(lines, "\n"), nil
}

var _ Engine = (*TextractEngine)(nil)

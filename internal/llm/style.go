package llm

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/2002Bishwajeet/ogbanana/internal/apperr"
	"github.com/2002Bishwajeet/ogbanana/internal/imaging"
)

// GenerateStylePrompt asks the vision model to describe the screenshot's
// visual style as a text-to-image prompt.
func (c *Client) GenerateStylePrompt(ctx context.Context, screenshotDataURL string) (string, error) {
	const op = "generate style prompt"
	if screenshotDataURL == "" {
		return "", apperr.New(apperr.KindValidation, op, "screenshot data URL is required")
	}
	mime, data, err := imaging.ParseDataURL(screenshotDataURL)
	if err != nil {
		return "", err
	}

	resp, err := c.generate(ctx, op, c.cfg.TextModel, userContent(
		genai.NewPartFromText(styleExtractionPrompt),
		genai.NewPartFromBytes(data, mime),
	), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.2),
		TopP:            genai.Ptr[float32](0.8),
		TopK:            genai.Ptr[float32](40),
		MaxOutputTokens: 1024,
		ThinkingConfig:  &genai.ThinkingConfig{IncludeThoughts: false},
	})
	if err != nil {
		return "", err
	}

	if text := strings.TrimSpace(resp.Text()); text != "" {
		return text, nil
	}
	if text := candidateText(resp); text != "" {
		return text, nil
	}
	return "", apperr.New(apperr.KindLLMResponse, op, "model did not return a style prompt")
}

// candidateText joins non-thought text parts across every candidate.
func candidateText(resp *genai.GenerateContentResponse) string {
	var parts []string
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p == nil || p.Thought {
				continue
			}
			if s := strings.TrimSpace(p.Text); s != "" {
				parts = append(parts, s)
			}
		}
	}
	return strings.Join(parts, " ")
}

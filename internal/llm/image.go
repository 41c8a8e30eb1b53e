package llm

import (
	"context"

	"google.golang.org/genai"

	"github.com/2002Bishwajeet/ogbanana/internal/apperr"
	"github.com/2002Bishwajeet/ogbanana/internal/imaging"
	"github.com/2002Bishwajeet/ogbanana/internal/logging"
)

// GenerateImage renders a 16:9 banner from prompt with the image model and
// returns it as a data URL.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	const op = "generate image"
	if prompt == "" {
		return "", apperr.New(apperr.KindValidation, op, "image prompt is required")
	}

	resp, err := c.generate(ctx, op, c.cfg.ImageModel, userContent(genai.NewPartFromText(prompt)), &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE"},
		ImageConfig:        &genai.ImageConfig{AspectRatio: imageAspectRatio},
	})
	if err != nil {
		return "", err
	}

	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p == nil || p.InlineData == nil || len(p.InlineData.Data) == 0 {
				continue
			}
			mime := p.InlineData.MIMEType
			if mime == "" {
				mime = "image/jpeg"
			}
			c.logger.Debug("image generated",
				logging.Field{Key: "mime", Value: mime},
				logging.Field{Key: "bytes", Value: len(p.InlineData.Data)})
			return imaging.EncodeDataURL(mime, p.InlineData.Data), nil
		}
	}
	return "", apperr.New(apperr.KindImageGeneration, op, "model did not return an image")
}

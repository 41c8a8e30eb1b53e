package llm

import (
	"context"
	"encoding/json"
	"strings"

	"google.golang.org/genai"

	"github.com/2002Bishwajeet/ogbanana/internal/apperr"
	"github.com/2002Bishwajeet/ogbanana/internal/extract"
	"github.com/2002Bishwajeet/ogbanana/internal/logging"
	"github.com/2002Bishwajeet/ogbanana/internal/model"
)

// MetadataOptions carries request-level inputs for GenerateMetadata.
type MetadataOptions struct {
	URL      string
	Language string
	// ContextText is untrusted user input.
	ContextText string
}

// GenerateMetadata asks the text model for the SEO/social metadata object of
// a page. The reply must be a JSON object; markup characters are removed from
// its string values before it is returned.
func (c *Client) GenerateMetadata(ctx context.Context, content model.PageContent, opts MetadataOptions) (model.Metadata, error) {
	const op = "generate metadata"

	payload := c.BuildMetadataPayload(content, opts)
	resp, err := c.generate(ctx, op, c.cfg.TextModel, userContent(genai.NewPartFromText(payload)), &genai.GenerateContentConfig{
		Temperature:       genai.Ptr[float32](0.25),
		TopP:              genai.Ptr[float32](0.9),
		TopK:              genai.Ptr[float32](40),
		MaxOutputTokens:   2000,
		ResponseMIMEType:  "application/json",
		SystemInstruction: &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(metadataSystemPrompt)}},
	})
	if err != nil {
		return nil, err
	}

	raw := strings.TrimSpace(resp.Text())
	if raw == "" {
		return nil, apperr.New(apperr.KindLLMResponse, op, "model did not return metadata text")
	}

	meta, err := ParseMetadata(raw)
	if err != nil {
		c.logger.Warn("metadata reply is not a JSON object", logging.Err(err), logging.Field{Key: "bytes", Value: len(raw)})
		return nil, err
	}
	return meta, nil
}

// BuildMetadataPayload renders the user turn sent to the model: the optional
// sandwiched context block, the condensed page, the canonical URL, language
// and any tags the page already declares.
func (c *Client) BuildMetadataPayload(content model.PageContent, opts MetadataOptions) string {
	head := extract.StripHTML(content.Head)
	body := c.condenseBody(content.Body)
	combined := extract.Truncate(strings.TrimSpace(head+"\n\n"+body), maxPageChars)

	if block := contextBlock(opts.ContextText); block != "" {
		combined = block + "\n\nWEBSITE CONTENT:\n" + combined
	}

	url := opts.URL
	if url == "" {
		url = "unknown"
	}
	lang := opts.Language
	if lang == "" {
		lang = c.cfg.Language
	}

	var b strings.Builder
	b.WriteString("INPUT DATA:\n")
	b.WriteString(combined)
	b.WriteString("\n\nCANONICAL URL: ")
	b.WriteString(url)
	b.WriteString("\nLANGUAGE: ")
	b.WriteString(lang)
	if existing := extract.ExistingMeta(content.Head); len(existing) > 0 {
		b.WriteString("\n\nEXISTING TAGS:\n")
		b.WriteString(extract.FormatMeta(existing))
	}
	return b.String()
}

func (c *Client) condenseBody(body string) string {
	if c.cfg.PageFormat == PageFormatMarkdown {
		md, err := extract.ToMarkdown(body)
		if err == nil {
			return md
		}
		c.logger.Debug("markdown conversion failed, using plain text", logging.Err(err))
	}
	return extract.StripHTML(body)
}

// contextBlock wraps untrusted context in delimiters followed by an
// instruction to treat it as data only.
func contextBlock(contextText string) string {
	clean := extract.Truncate(extract.StripHTML(contextText), maxContextChars)
	if clean == "" {
		return ""
	}
	return "<user_context_data>\n" + clean + "\n</user_context_data>\n" + contextSystemNote
}

// ParseMetadata decodes a model reply into Metadata. Non-object JSON is
// rejected and '<' and '>' are removed from every string value.
func ParseMetadata(raw string) (model.Metadata, error) {
	raw = strings.TrimSpace(raw)
	// Some models fence JSON even in JSON mode.
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, apperr.Wrapf(apperr.KindMetadataParse, "parse metadata", err, "unable to parse metadata JSON")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, apperr.New(apperr.KindMetadataParse, "parse metadata", "metadata JSON is not an object")
	}
	return model.Metadata(scrubMarkup(obj).(map[string]any)), nil
}

var markupReplacer = strings.NewReplacer("<", "", ">", "")

func scrubMarkup(v any) any {
	switch t := v.(type) {
	case string:
		return markupReplacer.Replace(t)
	case map[string]any:
		for k, val := range t {
			t[k] = scrubMarkup(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = scrubMarkup(val)
		}
		return t
	default:
		return v
	}
}

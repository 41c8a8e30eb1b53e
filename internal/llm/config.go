package llm

// PageFormat selects how page HTML is condensed before prompting.
type PageFormat string

const (
	PageFormatText     PageFormat = "text"
	PageFormatMarkdown PageFormat = "markdown"
)

type Config struct {
	APIKey     string     `mapstructure:"api_key"`
	TextModel  string     `mapstructure:"text_model"`
	ImageModel string     `mapstructure:"image_model"`
	Language   string     `mapstructure:"language"`
	PageFormat PageFormat `mapstructure:"page_format"`
}

func DefaultConfig() Config {
	return Config{
		TextModel:  "gemini-2.5-pro",
		ImageModel: "gemini-2.5-flash-image",
		Language:   "en_US",
		PageFormat: PageFormatText,
	}
}

const (
	maxPageChars    = 10000
	maxContextChars = 2000

	imageAspectRatio = "16:9"
)

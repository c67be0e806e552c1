package describe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultModel = "gemini-2.0-flash"

const prompt = `You are captioning a photograph for a personal photo gallery.
Look at the image and respond with JSON only, no markdown fences:
{"title": "<short evocative title, max 6 words>", "description": "<one or two sentences about the image>"}`

// Gemini is a vision provider backed by Google Gemini.
type Gemini struct {
	model string
}

// NewGemini returns a Gemini provider. An empty model selects the default.
func NewGemini(model string) *Gemini {
	if model == "" {
		model = defaultModel
	}
	return &Gemini{model: model}
}

// Describe sends the image to Gemini and parses the generated title and
// description.
func (g *Gemini) Describe(ctx context.Context, imageData []byte, mimeType string) (Description, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return Description{}, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return Description{}, fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	model.SetTemperature(0.4)

	format := strings.TrimPrefix(mimeType, "image/")
	resp, err := model.GenerateContent(ctx,
		genai.ImageData(format, imageData),
		genai.Text(prompt),
	)
	if err != nil {
		return Description{}, fmt.Errorf("failed to generate description: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return Description{}, fmt.Errorf("no candidates returned from Gemini")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return Description{}, fmt.Errorf("empty content returned from Gemini")
	}

	txt, ok := candidate.Content.Parts[0].(genai.Text)
	if !ok {
		return Description{}, fmt.Errorf("unexpected response format from Gemini")
	}

	return parseDescription(string(txt))
}

// parseDescription accepts the model's JSON answer, tolerating markdown
// fences. Text that is not valid JSON becomes the description verbatim.
func parseDescription(raw string) (Description, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var d Description
	if err := json.Unmarshal([]byte(cleaned), &d); err != nil {
		return Description{Description: cleaned}, nil
	}
	if d.Title == "" && d.Description == "" {
		return Description{}, fmt.Errorf("empty description from model")
	}
	return d, nil
}

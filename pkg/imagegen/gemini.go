package imagegen

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/genai"
)

const systemPrompt = `You are a sketch assistant creating mascot/character patterns for apparel (polos, hats, bags).

**COLOR: GRAYSCALE ONLY (MANDATORY)**
- Black, white, and gray tones ONLY - NO color, tints, or sepia
- Pencil and ink sketch

**CHARACTER & COMPOSITION:**
- Character fills most of frame (close-up and cropped preferred)
- Natural action poses with believable body mechanics
- Clean/empty background - isolated design element, not a scene
- Exaggerated proportions for appeal

**STYLE:**
- Rough sketch with loose ink, thick outlines, minimal interior detail
- No gradients, textures, photorealism, or hatching
- High contrast, looks like a 10-15 min human sketch
- No text unless requested
`

const outputRequirements = `

IMPORTANT OUTPUT REQUIREMENTS:
- Generate exactly 1 single design image (not multiple designs in one image)
- Match the layout, style, and technique shown in the reference images below
- Do NOT include any text, words, letters, or numbers in the generated image
- OUTPUT MUST BE BLACK AND WHITE / GRAYSCALE ONLY - NO COLOR`

// maxReferenceImages caps how many retrieved references ride along with one
// generation call.
const maxReferenceImages = 5

var (
	pngMagic  = []byte{0x89, 'P', 'N', 'G'}
	jpegMagic = []byte{0xff, 0xd8, 0xff}
)

// GeminiClient calls the Gemini image model. One call produces one image;
// concurrency and retries belong to the caller.
type GeminiClient struct {
	client    *genai.Client
	modelName string
	logger    *log.Logger
}

func NewGeminiClient(ctx context.Context, apiKey, modelName string, logger *log.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash-image"
	}
	if logger == nil {
		logger = log.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		modelName: modelName,
		logger:    logger,
	}, nil
}

// Generate produces one sketch image from the formatted prompt plus up to
// five reference images. Unreadable references are skipped with a warning
// rather than failing the call.
func (c *GeminiClient) Generate(ctx context.Context, prompt string, referencePaths []string, aspectRatio string, temperature float32) ([]byte, error) {
	parts := []*genai.Part{genai.NewPartFromText(prompt + outputRequirements)}

	refs := referencePaths
	if len(refs) > maxReferenceImages {
		refs = refs[:maxReferenceImages]
	}
	for _, path := range refs {
		data, err := os.ReadFile(path)
		if err != nil {
			c.logger.Printf("[WARN] Failed to load reference image %s: %v", path, err)
			continue
		}
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: mimeForPath(path), Data: data}})
	}

	return c.invoke(ctx, parts, aspectRatio, temperature)
}

// Refine produces one edited image from a single source sketch plus the
// editing instruction. An unreadable source is a SourceImageError, terminal
// for this slot.
func (c *GeminiClient) Refine(ctx context.Context, prompt string, sourcePath string, aspectRatio string, temperature float32) ([]byte, error) {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, &SourceImageError{Path: sourcePath, Err: err}
	}

	parts := []*genai.Part{
		genai.NewPartFromText(prompt + outputRequirements),
		{InlineData: &genai.Blob{MIMEType: mimeForPath(sourcePath), Data: data}},
	}

	return c.invoke(ctx, parts, aspectRatio, temperature)
}

func (c *GeminiClient) invoke(ctx context.Context, parts []*genai.Part, aspectRatio string, temperature float32) ([]byte, error) {
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	config := &genai.GenerateContentConfig{
		SystemInstruction:  genai.NewContentFromText(systemPrompt, genai.RoleUser),
		ResponseModalities: []string{"IMAGE", "TEXT"},
		Temperature:        genai.Ptr(temperature),
	}
	if aspectRatio != "" {
		config.ImageConfig = &genai.ImageConfig{AspectRatio: aspectRatio}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.modelName, contents, config)
	if err != nil {
		return nil, classifyAPIError(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, &TerminalError{Err: fmt.Errorf("model returned no candidates")}
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		img := part.InlineData.Data
		if !bytes.HasPrefix(img, pngMagic) && !bytes.HasPrefix(img, jpegMagic) {
			return nil, &TerminalError{Err: fmt.Errorf("model returned unrecognized image format (magic: %x)", head(img, 4))}
		}
		return img, nil
	}

	return nil, &TerminalError{Err: fmt.Errorf("model returned no image data")}
}

// classifyAPIError splits upstream failures into retryable and terminal.
// Rate limits, quota exhaustion, and availability blips are transient;
// everything else (safety blocks, bad requests) is terminal.
func classifyAPIError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"),
		strings.Contains(msg, "quota"),
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "resource exhausted"),
		strings.Contains(msg, "unavailable"),
		strings.Contains(msg, "503"),
		strings.Contains(msg, "500"),
		strings.Contains(msg, "deadline exceeded"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "timeout"):
		return &TransientError{Err: err}
	}
	return &TerminalError{Err: err}
}

func mimeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/png"
	}
}

func head(b []byte, n int) []byte {
	if len(b) < n {
		return b
	}
	return b[:n]
}

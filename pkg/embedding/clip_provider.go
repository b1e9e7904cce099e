package embedding

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// CLIPProvider implements Provider against a CLIP inference sidecar that
// exposes /embed/text and /embed/image. Transient sidecar failures are
// retried by the HTTP client; the embedding call stays opaque to callers.
type CLIPProvider struct {
	baseURL string
	modelID string
	dim     int
	client  *http.Client
}

func NewCLIPProvider(baseURL, modelID string, dim int) *CLIPProvider {
	if baseURL == "" {
		baseURL = "http://localhost:8100"
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil

	return &CLIPProvider{
		baseURL: baseURL,
		modelID: modelID,
		dim:     dim,
		client:  retryClient.StandardClient(),
	}
}

func (p *CLIPProvider) ModelID() string { return p.modelID }
func (p *CLIPProvider) Dim() int        { return p.dim }

type clipTextRequest struct {
	Text string `json:"text"`
}

type clipImageRequest struct {
	ImageBase64 string `json:"imageBase64"`
}

type clipResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (p *CLIPProvider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if len(text) == 0 {
		return nil, fmt.Errorf("cannot embed empty text")
	}
	return p.post(ctx, "/embed/text", clipTextRequest{Text: text})
}

func (p *CLIPProvider) EmbedImage(ctx context.Context, imagePath string) ([]float32, error) {
	raw, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", imagePath, err)
	}
	return p.post(ctx, "/embed/image", clipImageRequest{
		ImageBase64: base64.StdEncoding.EncodeToString(raw),
	})
}

func (p *CLIPProvider) post(ctx context.Context, path string, payload interface{}) ([]float32, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("clip service request failed: %w", err)
	}
	defer res.Body.Close()

	resBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("clip service error, code %d, body %s", res.StatusCode, string(resBytes))
	}

	var parsed clipResponse
	if err := json.Unmarshal(resBytes, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Embedding) != p.dim {
		return nil, fmt.Errorf("clip service returned %d dims, expected %d", len(parsed.Embedding), p.dim)
	}

	return Normalize(parsed.Embedding), nil
}

// Normalize scales a vector to unit length. Cached and query vectors are all
// unit-normalized so cosine similarity reduces to a dot product.
func Normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return vec
	}
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

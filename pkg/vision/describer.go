package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultDescribeModel answers one-shot scene questions; the live
	// session keeps its own streaming model.
	DefaultDescribeModel = "gemini-2.0-flash"

	// DefaultDescribePrompt is used when the caller gives none.
	DefaultDescribePrompt = "Describe what the camera sees in one or two sentences."

	defaultBaseURL = "https://generativelanguage.googleapis.com"

	describeTimeout = 15 * time.Second
)

// ErrMissingAPIKey is returned by NewDescriber without a credential.
var ErrMissingAPIKey = errors.New("vision: missing API key")

// DescriberConfig wires a Describer. APIKey is required.
type DescriberConfig struct {
	APIKey string

	// Model overrides DefaultDescribeModel.
	Model string

	// HTTPClient overrides the default client; tests point it at a
	// stub server via BaseURL.
	HTTPClient *http.Client

	// BaseURL overrides the generativelanguage endpoint.
	BaseURL string

	Logger *slog.Logger
}

// Describer asks Gemini Flash what a single frame shows. It backs the
// dashboard's describe-scene control and is independent of the live
// session.
type Describer struct {
	cfg    DescriberConfig
	client *http.Client
	logger *slog.Logger
}

// NewDescriber validates the credential and builds a describer.
func NewDescriber(cfg DescriberConfig) (*Describer, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultDescribeModel
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: describeTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Describer{cfg: cfg, client: client, logger: logger}, nil
}

type generatePart struct {
	Text       string       `json:"text,omitempty"`
	InlineData *inlineImage `json:"inline_data,omitempty"`
}

type inlineImage struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generateConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateRequest struct {
	Contents         []generateContent `json:"contents"`
	GenerationConfig generateConfig    `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Describe sends one JPEG frame and returns the model's answer. An
// empty prompt selects DefaultDescribePrompt.
func (d *Describer) Describe(ctx context.Context, jpeg []byte, prompt string) (string, error) {
	if len(jpeg) == 0 {
		return "", ErrNoFrame
	}
	if prompt == "" {
		prompt = DefaultDescribePrompt
	}

	payload := generateRequest{
		Contents: []generateContent{{
			Parts: []generatePart{
				{Text: prompt},
				{InlineData: &inlineImage{
					MIMEType: "image/jpeg",
					Data:     base64.StdEncoding.EncodeToString(jpeg),
				}},
			},
		}},
		GenerationConfig: generateConfig{
			Temperature:     0.7,
			MaxOutputTokens: 1000,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("vision: encode request: %w", err)
	}

	base := d.cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", base, d.cfg.Model, d.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("vision: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision: describe request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("vision: read response: %w", err)
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("vision: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error.Message != "" {
			return "", fmt.Errorf("vision: describe: %s", out.Error.Message)
		}
		return "", fmt.Errorf("vision: describe: status %d", resp.StatusCode)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("vision: empty describe response")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

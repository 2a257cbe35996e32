package intel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"lastmile-backend/config"
)

// Client talks to the external reasoning service over its generateContent
// REST endpoint. The service is a black box: it returns free text that is
// expected, but not guaranteed, to contain one JSON object.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewClient creates a client from the intel section of the configuration.
func NewClient(cfg *config.IntelConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// GenerateRequest is the request body for a generateContent call.
type GenerateRequest struct {
	Contents         []Content         `json:"contents"`
	Tools            []Tool            `json:"tools,omitempty"`
	ToolConfig       *ToolConfig       `json:"toolConfig,omitempty"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// Content is a single message in the request or reply.
type Content struct {
	Parts []Part `json:"parts"`
}

// Part is one text fragment of a message.
type Part struct {
	Text string `json:"text"`
}

// Tool enables one of the service's retrieval capabilities.
type Tool struct {
	GoogleMaps   *struct{} `json:"googleMaps,omitempty"`
	GoogleSearch *struct{} `json:"googleSearch,omitempty"`
}

// ToolConfig carries retrieval grounding options.
type ToolConfig struct {
	RetrievalConfig *RetrievalConfig `json:"retrievalConfig,omitempty"`
}

// RetrievalConfig grounds retrieval at a geographic point.
type RetrievalConfig struct {
	LatLng LatLng `json:"latLng"`
}

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GenerationConfig controls sampling. Both queries run deterministic.
type GenerationConfig struct {
	Temperature float64 `json:"temperature"`
}

// GenerateResponse is the reply to a generateContent call.
type GenerateResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// Candidate is one generated reply with its citation metadata.
type Candidate struct {
	Content           Content            `json:"content"`
	GroundingMetadata *GroundingMetadata `json:"groundingMetadata,omitempty"`
}

// GroundingMetadata lists the evidence chunks backing a candidate.
type GroundingMetadata struct {
	GroundingChunks []GroundingChunk `json:"groundingChunks"`
}

// GroundingChunk is a single citation, either a maps entity or a web page.
type GroundingChunk struct {
	Maps *ChunkSource `json:"maps,omitempty"`
	Web  *ChunkSource `json:"web,omitempty"`
}

// ChunkSource names the cited resource.
type ChunkSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Text concatenates the text parts of the first candidate.
func (r *GenerateResponse) Text() string {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// GroundingChunks returns the first candidate's citation chunks, if any.
func (r *GenerateResponse) GroundingChunks() []GroundingChunk {
	if r == nil || len(r.Candidates) == 0 || r.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	return r.Candidates[0].GroundingMetadata.GroundingChunks
}

// GenerateContent posts the request to the reasoning service and decodes the
// reply.
func (c *Client) GenerateContent(ctx context.Context, genReq GenerateRequest) (*GenerateResponse, error) {
	body, err := json.Marshal(genReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generate request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-goog-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	var genResp GenerateResponse
	if err := json.Unmarshal(data, &genResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal generate response: %w", err)
	}
	return &genResp, nil
}

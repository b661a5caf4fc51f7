package recognition

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kozaktomas/attendance-cam/internal/config"
)

const (
	defaultServiceURL = "http://localhost:5005"
	defaultTimeout    = 30 * time.Second
)

// Client computes face representations using a DeepFace-compatible HTTP API.
type Client struct {
	baseURL  string
	model    config.Model
	detector config.Detector
	client   *http.Client
}

// NewClient creates a new representation client
func NewClient(baseURL string, model config.Model, detector config.Detector) *Client {
	if baseURL == "" {
		baseURL = defaultServiceURL
	}
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		model:    model,
		detector: detector,
		client:   &http.Client{Timeout: defaultTimeout},
	}
}

// representRequest is the body of POST /represent
type representRequest struct {
	Img              string `json:"img"`
	ModelName        string `json:"model_name"`
	DetectorBackend  string `json:"detector_backend"`
	EnforceDetection bool   `json:"enforce_detection"`
	Align            bool   `json:"align"`
}

// representResponse is the response from POST /represent
type representResponse struct {
	Results []struct {
		Embedding      []float32 `json:"embedding"`
		FaceConfidence float64   `json:"face_confidence"`
		FacialArea     Region    `json:"facial_area"`
	} `json:"results"`
	Error string `json:"error"`
}

// Represent returns the faces found in img in the order reported by the
// service. Detection is not enforced, so the service
// answers an image without faces with a single whole-image region of zero
// confidence; such regions are dropped.
func (c *Client) Represent(ctx context.Context, img []byte) ([]Face, error) {
	if len(img) == 0 {
		return nil, errors.New("empty image")
	}

	payload, err := json.Marshal(representRequest{
		Img:              "data:" + detectMIMEType(img) + ";base64," + base64.StdEncoding.EncodeToString(img),
		ModelName:        c.model.WireName(),
		DetectorBackend:  c.detector.WireName(),
		EnforceDetection: false,
		Align:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/represent", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: status %d: %s", ErrServiceUnavailable, resp.StatusCode, string(body))
	}

	var repResp representResponse
	if err := json.Unmarshal(body, &repResp); err != nil {
		return nil, fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if repResp.Error != "" {
			return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, repResp.Error)
		}
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	faces := make([]Face, 0, len(repResp.Results))
	for _, r := range repResp.Results {
		if r.FaceConfidence <= 0 || r.FacialArea.Empty() {
			continue
		}
		if len(r.Embedding) == 0 {
			return nil, errors.New("empty embedding returned")
		}
		faces = append(faces, Face{
			Embedding:  r.Embedding,
			Region:     r.FacialArea,
			Confidence: r.FaceConfidence,
		})
	}
	return faces, nil
}

// Ping checks that the service answers at all.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
	}
	return nil
}

// Model returns the configured recognition model
func (c *Client) Model() config.Model {
	return c.model
}

// Detector returns the configured detector backend
func (c *Client) Detector() config.Detector {
	return c.detector
}

// detectMIMEType detects the MIME type from image data
func detectMIMEType(data []byte) string {
	if len(data) < 8 {
		return "application/octet-stream"
	}
	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}
	// PNG: 89 50 4E 47
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	return "application/octet-stream"
}

package detect

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/smegmarip/adaptive-face/pkg/face"
)

// ServiceBackend talks to a remote model server over HTTP. The fast and
// accurate detectors are served this way; the wire format is owned by the
// server, this client only adapts it to candidates.
type ServiceBackend struct {
	name       string
	BaseURL    string
	HTTPClient *http.Client
}

// serviceDetectResponse matches the model server's detect response.
type serviceDetectResponse struct {
	Faces []struct {
		Box struct {
			XMin int `json:"x_min"`
			YMin int `json:"y_min"`
			XMax int `json:"x_max"`
			YMax int `json:"y_max"`
		} `json:"box"`
		Confidence float64 `json:"confidence"`
	} `json:"faces"`
}

// NewServiceBackend creates an HTTP detector client.
func NewServiceBackend(name, baseURL string) *ServiceBackend {
	return &ServiceBackend{
		name:    name,
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name returns the backend name.
func (b *ServiceBackend) Name() string {
	return b.name
}

// SetTimeout sets the HTTP client timeout.
func (b *ServiceBackend) SetTimeout(timeout time.Duration) {
	b.HTTPClient.Timeout = timeout
}

// Health checks whether the model server is reachable.
func (b *ServiceBackend) Health() error {
	url := fmt.Sprintf("%s/health", b.BaseURL)

	resp, err := b.HTTPClient.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// Detect sends the image to the model server and converts the response to
// candidates. Malformed boxes in the response are silently discarded.
func (b *ServiceBackend) Detect(img image.Image, minConfidence float64) ([]face.Candidate, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", face.ErrInvalidCandidate)
	}

	url := fmt.Sprintf("%s/detect?min_confidence=%.3f", b.BaseURL, minConfidence)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if err := jpeg.Encode(part, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	writer.Close()

	req, err := http.NewRequest("POST", url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := b.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result serviceDetectResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	candidates := make([]face.Candidate, 0, len(result.Faces))
	for _, f := range result.Faces {
		box := face.Box{X1: f.Box.XMin, Y1: f.Box.YMin, X2: f.Box.XMax, Y2: f.Box.YMax}
		if !box.Valid() {
			continue
		}
		if f.Confidence < minConfidence {
			continue
		}
		candidates = append(candidates, face.Candidate{
			Box:        box,
			Confidence: face.Clamp(f.Confidence, 0, 1),
			Source:     b.name,
		})
	}

	return candidates, nil
}

package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/charta/internal/common"
	"github.com/ternarybob/charta/internal/interfaces"
	"github.com/ternarybob/charta/internal/models"
)

const (
	docIntelAPIVersion = "2024-11-30"
	layoutModel        = "prebuilt-layout"
	readModel          = "prebuilt-read"
)

// DocIntelBackend runs OCR through the Azure Document Intelligence REST
// API: prebuilt-layout with markdown output for the text artifact, and
// prebuilt-read with PDF output for the searchable PDF artifact. Both
// analyses follow the submit-then-poll pattern on Operation-Location.
type DocIntelBackend struct {
	endpoint    string
	apiKey      string
	pollSeconds int
	maxPolls    int
	client      *http.Client
	logger      arbor.ILogger
}

var _ interfaces.OCRBackend = (*DocIntelBackend)(nil)

// NewDocIntelBackend creates the Azure Document Intelligence backend.
// Endpoint and API key are required; their absence is a configuration
// error for this backend only.
func NewDocIntelBackend(config *common.DocIntelConfig, logger arbor.ILogger) (*DocIntelBackend, error) {
	apiKey := config.APIKey
	if v := os.Getenv("CHARTA_DOCINTEL_API_KEY"); v != "" {
		apiKey = v
	}
	if config.Endpoint == "" || apiKey == "" {
		return nil, fmt.Errorf("docintel backend requires endpoint and api_key")
	}

	pollSeconds := config.PollSeconds
	if pollSeconds <= 0 {
		pollSeconds = 2
	}
	maxPolls := config.MaxPolls
	if maxPolls <= 0 {
		maxPolls = 60
	}

	return &DocIntelBackend{
		endpoint:    strings.TrimRight(config.Endpoint, "/"),
		apiKey:      apiKey,
		pollSeconds: pollSeconds,
		maxPolls:    maxPolls,
		client:      &http.Client{Timeout: 60 * time.Second},
		logger:      logger,
	}, nil
}

// Name returns the backend identifier
func (b *DocIntelBackend) Name() string { return BackendDocIntel }

// Run performs both analyses and returns the artifact pair
func (b *DocIntelBackend) Run(ctx context.Context, pdfPath string) (*models.ArtifactPair, error) {
	pdfBytes, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read source PDF: %w", err)
	}

	b.logger.Info().
		Int("pdf_bytes", len(pdfBytes)).
		Msg("Submitting document to Azure Document Intelligence")

	markdown, err := b.analyzeMarkdown(ctx, pdfBytes)
	if err != nil {
		return nil, fmt.Errorf("layout analysis failed: %w", err)
	}

	searchablePDF, err := b.analyzeSearchablePDF(ctx, pdfBytes)
	if err != nil {
		return nil, fmt.Errorf("read analysis failed: %w", err)
	}

	return &models.ArtifactPair{
		Markdown:      []byte(markdown),
		SearchablePDF: searchablePDF,
	}, nil
}

// analyzeRequest is the submit body for both models
type analyzeRequest struct {
	Base64Source string `json:"base64Source"`
}

// analyzeResult is the subset of the poll response we consume
type analyzeResult struct {
	Status        string `json:"status"`
	AnalyzeResult struct {
		Content string `json:"content"`
	} `json:"analyzeResult"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// analyzeMarkdown runs prebuilt-layout with markdown output
func (b *DocIntelBackend) analyzeMarkdown(ctx context.Context, pdfBytes []byte) (string, error) {
	submitURL := fmt.Sprintf("%s/documentintelligence/documentModels/%s:analyze?api-version=%s&outputContentFormat=markdown",
		b.endpoint, layoutModel, docIntelAPIVersion)

	opLocation, err := b.submit(ctx, submitURL, pdfBytes)
	if err != nil {
		return "", err
	}

	result, err := b.poll(ctx, opLocation)
	if err != nil {
		return "", err
	}

	if result.AnalyzeResult.Content == "" {
		return "", fmt.Errorf("layout analysis returned no content")
	}

	return result.AnalyzeResult.Content, nil
}

// analyzeSearchablePDF runs prebuilt-read with PDF output and fetches
// the generated searchable PDF
func (b *DocIntelBackend) analyzeSearchablePDF(ctx context.Context, pdfBytes []byte) ([]byte, error) {
	submitURL := fmt.Sprintf("%s/documentintelligence/documentModels/%s:analyze?api-version=%s&output=pdf",
		b.endpoint, readModel, docIntelAPIVersion)

	opLocation, err := b.submit(ctx, submitURL, pdfBytes)
	if err != nil {
		return nil, err
	}

	if _, err := b.poll(ctx, opLocation); err != nil {
		return nil, err
	}

	// The searchable PDF lives next to the analyze result:
	// .../analyzeResults/{resultId}/pdf
	pdfURL := resultPDFURL(opLocation)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch searchable PDF: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("searchable PDF fetch returned %d: %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read searchable PDF body: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("searchable PDF fetch returned empty body")
	}

	return data, nil
}

// submit posts the document and returns the Operation-Location URL
func (b *DocIntelBackend) submit(ctx context.Context, url string, pdfBytes []byte) (string, error) {
	body, err := json.Marshal(analyzeRequest{
		Base64Source: base64.StdEncoding.EncodeToString(pdfBytes),
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("analyze submit failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("analyze submit returned %d: %s", resp.StatusCode, string(respBody))
	}

	opLocation := resp.Header.Get("Operation-Location")
	if opLocation == "" {
		return "", fmt.Errorf("analyze submit returned no Operation-Location header")
	}

	return opLocation, nil
}

// poll long-polls the operation until it succeeds, fails, or the poll
// budget is exhausted
func (b *DocIntelBackend) poll(ctx context.Context, opLocation string) (*analyzeResult, error) {
	interval := time.Duration(b.pollSeconds) * time.Second

	for attempt := 0; attempt < b.maxPolls; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, opLocation, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Ocp-Apim-Subscription-Key", b.apiKey)

		resp, err := b.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("analyze poll failed: %w", err)
		}

		var result analyzeResult
		decodeErr := json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()
		if decodeErr != nil {
			return nil, fmt.Errorf("failed to decode analyze result: %w", decodeErr)
		}

		switch result.Status {
		case "succeeded":
			return &result, nil
		case "failed":
			return nil, fmt.Errorf("analysis failed: %s: %s", result.Error.Code, result.Error.Message)
		default:
			b.logger.Debug().
				Str("status", result.Status).
				Int("attempt", attempt+1).
				Msg("Waiting for Document Intelligence analysis")
		}
	}

	return nil, fmt.Errorf("analysis did not complete after %d polls", b.maxPolls)
}

// resultPDFURL converts an Operation-Location URL into the generated
// PDF URL by dropping the query string and appending /pdf
func resultPDFURL(opLocation string) string {
	base := opLocation
	if i := strings.Index(base, "?"); i >= 0 {
		base = base[:i]
	}
	return strings.TrimRight(base, "/") + "/pdf?api-version=" + docIntelAPIVersion
}

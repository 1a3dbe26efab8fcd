// Package client is a small HTTP client for the transcription API, used by
// the command line tools.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		// Transcription of a long clip on CPU can take minutes.
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

type TranscribeResponse struct {
	Success       bool   `json:"success"`
	Transcription string `json:"transcription"`
	Language      string `json:"language"`
	ModelUsed     string `json:"model_used"`
	Timestamp     string `json:"timestamp"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Transcribe uploads a recorded clip and returns the server's transcription.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (TranscribeResponse, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("audio", filename)
	if err != nil {
		return TranscribeResponse{}, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return TranscribeResponse{}, fmt.Errorf("writing audio: %w", err)
	}
	if err := writer.Close(); err != nil {
		return TranscribeResponse{}, fmt.Errorf("closing writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/transcribe", body)
	if err != nil {
		return TranscribeResponse{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return TranscribeResponse{}, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return TranscribeResponse{}, decodeError(resp)
	}

	var result TranscribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return TranscribeResponse{}, fmt.Errorf("decoding response: %w", err)
	}
	return result, nil
}

// ChangeModel asks the server to load a different model.
func (c *Client) ChangeModel(ctx context.Context, model string) error {
	payload, err := json.Marshal(map[string]string{"model": model})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/change-model", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)
	var apiErr errorResponse
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
		return fmt.Errorf("server error %d: %s", resp.StatusCode, apiErr.Error)
	}
	return fmt.Errorf("server error %d: %s", resp.StatusCode, string(raw))
}

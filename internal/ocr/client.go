// Package ocr reads scale tickets through a Gemini generateContent endpoint.
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rivadavia/grainops/internal/config"
	"github.com/rivadavia/grainops/internal/model"
	"github.com/rivadavia/grainops/internal/numeric"
)

var (
	ErrNotConfigured = errors.New("ocr provider is not configured")
	ErrRateLimited   = errors.New("ocr provider rate limit exceeded")
	ErrEmptyResponse = errors.New("ocr provider returned no content")
)

const prompt = "Extrae únicamente la 'patente', el número de 'carta_porte', el 'bruto_kg' (peso bruto en kg) " +
	"y el 'tara_kg' (peso de la tara en kg) de esta imagen de un comprobante de balanza o carta de porte. " +
	"El bruto y la tara deben ser números, sin unidades ni texto."

var responseSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"patente":     map[string]any{"type": "STRING", "description": "La patente del camión."},
		"carta_porte": map[string]any{"type": "STRING", "description": "El número de la carta de porte."},
		"bruto_kg":    map[string]any{"type": "NUMBER", "description": "El peso bruto del camión en kilogramos."},
		"tara_kg":     map[string]any{"type": "NUMBER", "description": "El peso de la tara del camión en kilogramos."},
	},
}

type Observer interface {
	ObserveOCR(result string)
}

type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
	maxRetries int
	baseDelay  time.Duration
	observer   Observer
	log        zerolog.Logger
}

func NewClient(cfg config.OCRConfig, observer Observer, log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxRetries: max(cfg.MaxRetries, 1),
		baseDelay:  time.Second,
		observer:   observer,
		log:        log,
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseMimeType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema"`
	Temperature      float64        `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type ticketFields struct {
	LicensePlate string        `json:"patente"`
	Waybill      string        `json:"carta_porte"`
	Gross        numeric.Value `json:"bruto_kg"`
	Tare         numeric.Value `json:"tara_kg"`
}

// ScanTicket sends the image to the provider and returns the fields it could read.
func (c *Client) ScanTicket(ctx context.Context, image []byte, mimeType string) (*model.TicketGuess, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(image)
	}

	payload, err := json.Marshal(generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{Text: prompt},
				{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
			},
		}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   responseSchema,
			Temperature:      0.1,
		},
	})
	if err != nil {
		return nil, err
	}

	body, err := c.postWithRetry(ctx, payload)
	if err != nil {
		c.observe("error")
		c.log.Error().Err(err).Str("model", c.model).Msg("ocr request failed")
		return nil, err
	}

	guess, err := parseGuess(body)
	if err != nil {
		c.observe("unparsable")
		return nil, err
	}
	c.observe("ok")
	return guess, nil
}

func (c *Client) postWithRetry(ctx context.Context, payload []byte) ([]byte, error) {
	target := fmt.Sprintf("%s/%s:generateContent", c.endpoint, url.PathEscape(c.model))

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.wait(ctx, attempt); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			c.log.Warn().Int("attempt", attempt+1).Msg("ocr provider rate limited")
			lastErr = ErrRateLimited
		case resp.StatusCode >= http.StatusInternalServerError:
			lastErr = fmt.Errorf("ocr provider status %d", resp.StatusCode)
		case resp.StatusCode >= http.StatusBadRequest:
			return nil, fmt.Errorf("ocr provider status %d: %s", resp.StatusCode, truncate(string(body), 200))
		default:
			return body, nil
		}
	}
	return nil, lastErr
}

// wait sleeps base*2^(attempt-1) plus up to base of jitter.
func (c *Client) wait(ctx context.Context, attempt int) error {
	delay := c.baseDelay << (attempt - 1)
	if c.baseDelay > 0 {
		delay += time.Duration(rand.Int64N(int64(c.baseDelay)))
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseGuess(body []byte) (*model.TicketGuess, error) {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode ocr response: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return nil, ErrEmptyResponse
	}
	text = strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(text, "```json"), "```"), "```")

	var fields ticketFields
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &fields); err != nil {
		return nil, fmt.Errorf("decode ticket fields: %w", err)
	}
	return &model.TicketGuess{
		LicensePlate:  strings.TrimSpace(fields.LicensePlate),
		Waybill:       strings.TrimSpace(fields.Waybill),
		GrossWeightKg: fields.Gross.Float64(),
		TareWeightKg:  fields.Tare.Float64(),
		Raw:           []byte(strings.TrimSpace(text)),
	}, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

func (c *Client) observe(result string) {
	if c.observer != nil {
		c.observer.ObserveOCR(result)
	}
}

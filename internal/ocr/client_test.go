package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivadavia/grainops/internal/config"
)

type countingObserver struct{ results []string }

func (o *countingObserver) ObserveOCR(result string) { o.results = append(o.results, result) }

func newTestClient(t *testing.T, endpoint string, retries int) (*Client, *countingObserver) {
	t.Helper()
	observer := &countingObserver{}
	client := NewClient(config.OCRConfig{
		Endpoint:   endpoint,
		APIKey:     "test-key",
		Model:      "gemini-2.5-flash",
		MaxRetries: retries,
		Timeout:    5 * time.Second,
	}, observer, zerolog.Nop())
	client.baseDelay = time.Millisecond
	return client, observer
}

func candidateBody(text string) []byte {
	body, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
		},
	})
	return body
}

func TestScanTicketParsesCandidate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.RawQuery)

		raw, _ := io.ReadAll(r.Body)
		var req generateRequest
		require.NoError(t, json.Unmarshal(raw, &req))
		require.Len(t, req.Contents[0].Parts, 2)
		assert.Equal(t, "image/png", req.Contents[0].Parts[1].InlineData.MimeType)
		assert.Equal(t, "application/json", req.GenerationConfig.ResponseMimeType)

		_, _ = w.Write(candidateBody(`{"patente":" AB123CD ","carta_porte":"CP-77","bruto_kg":"30.500,5","tara_kg":12000}`))
	}))
	defer server.Close()

	client, observer := newTestClient(t, server.URL, 3)
	guess, err := client.ScanTicket(context.Background(), []byte("img"), "image/png")
	require.NoError(t, err)

	assert.Equal(t, "AB123CD", guess.LicensePlate)
	assert.Equal(t, "CP-77", guess.Waybill)
	assert.Zero(t, guess.GrossWeightKg, "locale-formatted numbers are not guessed")
	assert.Equal(t, 12000.0, guess.TareWeightKg)
	assert.NotEmpty(t, guess.Raw)
	assert.Equal(t, []string{"ok"}, observer.results)
}

func TestScanTicketRetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write(candidateBody(`{"patente":"AC456EF","bruto_kg":25000,"tara_kg":9000}`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL, 3)
	guess, err := client.ScanTicket(context.Background(), []byte("img"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 25000.0, guess.GrossWeightKg)
}

func TestScanTicketGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, observer := newTestClient(t, server.URL, 2)
	_, err := client.ScanTicket(context.Background(), []byte("img"), "image/png")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []string{"error"}, observer.results)
}

func TestScanTicketClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad image", http.StatusBadRequest)
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL, 3)
	_, err := client.ScanTicket(context.Background(), []byte("img"), "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestScanTicketHonorsCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL, 5)
	client.baseDelay = time.Minute
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.ScanTicket(ctx, []byte("img"), "image/png")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScanTicketNotConfigured(t *testing.T) {
	client := NewClient(config.OCRConfig{Endpoint: "http://unused", MaxRetries: 1}, nil, zerolog.Nop())
	_, err := client.ScanTicket(context.Background(), []byte("img"), "image/png")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestParseGuessRejectsEmpty(t *testing.T) {
	_, err := parseGuess([]byte(`{"candidates":[]}`))
	assert.ErrorIs(t, err, ErrEmptyResponse)

	guess, err := parseGuess(candidateBody("```json\n{\"patente\":\"AA000AA\"}\n```"))
	require.NoError(t, err)
	assert.Equal(t, "AA000AA", guess.LicensePlate)
}

func TestScanTicketKeepsKeyOutOfErrorsAndLogs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close()

	var logs bytes.Buffer
	client := NewClient(config.OCRConfig{
		Endpoint:   endpoint,
		APIKey:     "SECRET-KEY",
		Model:      "gemini-2.5-flash",
		MaxRetries: 1,
		Timeout:    time.Second,
	}, nil, zerolog.New(&logs))

	_, err := client.ScanTicket(context.Background(), []byte("img"), "image/png")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET-KEY")
	assert.NotEmpty(t, logs.String())
	assert.NotContains(t, logs.String(), "SECRET-KEY")
}

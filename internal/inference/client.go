package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yourorg/motionsense/pkg/types"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 32 << 20

// Predictor classifies one sensor file.
type Predictor interface {
	Predict(ctx context.Context, filename string, data []byte) (*types.PredictResponse, error)
}

// Client talks to the activity recognition service.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// NewClient builds a Client for baseURL.
func NewClient(baseURL string, logger zerolog.Logger) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{},
		Logger:     logger.With().Str("component", "inference").Logger(),
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + path
}

// Predict uploads data as the multipart field "file" to /predict. Transport
// and status failures come back as RequestFailed, undecodable or incomplete
// payloads as MalformedResponse.
func (c *Client) Predict(ctx context.Context, filename string, data []byte) (*types.PredictResponse, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/predict"), body)
	if err != nil {
		return nil, types.Wrap(types.KindRequestFailed, err, "Invalid inference request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	log := c.Logger.With().Str("request_id", requestID).Str("file", filename).Logger()
	log.Debug().Int("bytes", len(data)).Str("url", req.URL.String()).Msg("inference request")

	start := time.Now()
	raw, status, err := c.do(req)
	if err != nil {
		log.Warn().Err(err).Msg("inference request failed")
		return nil, err
	}
	log.Debug().Int("status", status).Dur("elapsed", time.Since(start)).Msg("inference response")

	var out types.PredictResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, types.Wrap(types.KindMalformedResponse, err, "Malformed response from analysis service")
	}
	if out.Predictions == nil {
		return nil, types.Errorf(types.KindMalformedResponse, "Malformed response: missing predictions")
	}
	return &out, nil
}

// Activities lists the activity labels the service can emit.
func (c *Client) Activities(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/activities"), nil)
	if err != nil {
		return nil, types.Wrap(types.KindRequestFailed, err, "Invalid inference request")
	}
	raw, _, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var out struct {
		Available []string `json:"available_activities"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, types.Wrap(types.KindMalformedResponse, err, "Malformed response from analysis service")
	}
	return out.Available, nil
}

// Ping checks that the service answers on its root path.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/"), nil)
	if err != nil {
		return types.Wrap(types.KindRequestFailed, err, "Invalid inference request")
	}
	_, _, err = c.do(req)
	return err
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, 0, transportError(req.Context(), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, transportError(req.Context(), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, statusError(resp.StatusCode, data)
	}
	return data, resp.StatusCode, nil
}

// transportError classifies a failed exchange. A deadline may surface while
// sending or while reading the body, so the request context is consulted too.
func transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return types.Wrap(types.KindRequestFailed, err, "Analysis service timed out")
	}
	return types.Wrap(types.KindRequestFailed, err, "")
}

// statusError prefers the service's JSON "detail" string verbatim.
func statusError(status int, body []byte) error {
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if detail, ok := payload.Detail.(string); ok && detail != "" {
			return &types.Error{Kind: types.KindRequestFailed, Message: detail}
		}
	}
	return types.Errorf(types.KindRequestFailed, "HTTP error! status: %d", status)
}

var _ Predictor = (*Client)(nil)

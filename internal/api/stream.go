package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxLineSize caps a single stream line (64KB), matching bufio's token limit
// handling for unusually large frames.
const maxLineSize = 64 * 1024

// streamClient has no global timeout; stream duration is bounded by the
// per-call context deadline instead.
var streamClient = &http.Client{}

// Stream is a single-use, lazy sequence of raw lines from a chunked chat
// response. It is not restartable; retrying requires a new OpenStream call.
type Stream struct {
	ctx     context.Context
	cancel  context.CancelFunc
	body    io.ReadCloser
	scanner *bufio.Scanner
}

// Next returns the next raw line, or io.EOF when the response ends. Context
// errors (deadline, cancellation) are returned as-is so callers can tell a
// timeout from a disconnect.
func (s *Stream) Next() (string, error) {
	if err := s.ctx.Err(); err != nil {
		return "", err
	}
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.ctx.Err(); err != nil {
		return "", err
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Close aborts the underlying request and releases the connection.
func (s *Stream) Close() error {
	s.cancel()
	return s.body.Close()
}

// OpenStream initiates a streaming chat call. The configured stream timeout
// is measured from call start and aborts the request when exceeded,
// surfacing as context.DeadlineExceeded from Next.
func (c *Client) OpenStream(ctx context.Context, message string) (*Stream, error) {
	if c.token == "" {
		return nil, ErrUnauthenticated
	}

	streamCtx, cancel := context.WithTimeout(ctx, c.streamTimeout)

	payload, err := json.Marshal(chatRequest{Message: message, Stream: true})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(streamCtx, http.MethodPost, c.baseURL+"/chat/stream", bytes.NewReader(payload))
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := streamClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		cancel()
		return nil, errorFromResponse(resp.StatusCode, raw)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	return &Stream{
		ctx:     streamCtx,
		cancel:  cancel,
		body:    resp.Body,
		scanner: scanner,
	}, nil
}

// StreamTimeout reports the configured ceiling, mostly for logging.
func (c *Client) StreamTimeout() time.Duration {
	return c.streamTimeout
}

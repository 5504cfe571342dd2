package chat

import (
	"context"

	"github.com/oykum/carelink-go/internal/api"
)

// apiTransport adapts *api.Client to Transport; the client's OpenStream
// returns a concrete *api.Stream.
type apiTransport struct {
	client *api.Client
}

// NewAPITransport wraps the backend client for use by the controller.
func NewAPITransport(client *api.Client) Transport {
	return apiTransport{client: client}
}

func (t apiTransport) OpenStream(ctx context.Context, message string) (RawStream, error) {
	s, err := t.client.OpenStream(ctx, message)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (t apiTransport) DeleteSession(ctx context.Context, sessionID string) error {
	return t.client.DeleteSession(ctx, sessionID)
}

package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

// HTTPSink mirrors changes to the remote inventory service.
type HTTPSink struct {
	base   *url.URL
	token  string
	client *http.Client
}

func NewHTTPSink(baseURL string, token string, client *http.Client) (*HTTPSink, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing persistence url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("persistence url %q must be http or https", baseURL)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSink{base: u, token: token, client: client}, nil
}

type addBody struct {
	UserID       uuid.UUID `json:"user_id"`
	ItemUUID     uuid.UUID `json:"item_uuid"`
	DefinitionID int       `json:"definition_id"`
	StateBlob    []byte    `json:"state_blob"`
}

type destroyBody struct {
	UserID  uuid.UUID `json:"user_id"`
	ItemUID uuid.UUID `json:"item_uid"`
}

func (s *HTTPSink) Apply(ctx context.Context, c Change) error {
	switch c.Op {
	case OpUpsert:
		return s.post(ctx, "inventory/add", addBody{
			UserID:       c.OwnerID,
			ItemUUID:     c.InstanceID,
			DefinitionID: c.DefinitionID,
			StateBlob:    c.StateBlob,
		})
	case OpDestroy:
		return s.post(ctx, "inventory/destroy", destroyBody{
			UserID:  c.OwnerID,
			ItemUID: c.InstanceID,
		})
	default:
		return fmt.Errorf("unsupported change op %d", c.Op)
	}
}

func (s *HTTPSink) post(ctx context.Context, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshalling %s body: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.base.JoinPath(path).String(), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("posting %s: status %d: %s", path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

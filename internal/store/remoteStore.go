package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	sse "github.com/r3labs/sse/v2"
	"github.com/wheelibin/glow/internal/constants"
	"github.com/wheelibin/glow/internal/glowerrors"
	"github.com/wheelibin/glow/internal/models"
	"gopkg.in/cenkalti/backoff.v1"
)

// RemoteStore talks to a glowd document store: partial writes over http and
// change notifications over its server sent event streams.
type RemoteStore struct {
	logger     *log.Logger
	baseURL    string
	clientID   string
	httpClient *http.Client

	// how long a subscription keeps trying to (re)connect before giving up
	ReconnectTimeout time.Duration
}

func NewRemoteStore(logger *log.Logger, baseURL string) *RemoteStore {
	return &RemoteStore{
		logger:     logger,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		clientID:   uuid.NewString(),
		httpClient: &http.Client{Timeout: 10 * time.Second},

		ReconnectTimeout: time.Minute,
	}
}

// ClientID identifies this instance's writes in the server logs
func (s *RemoteStore) ClientID() string {
	return s.clientID
}

// Update merges fields into the referenced document
func (s *RemoteStore) Update(ctx context.Context, ref models.DocumentRef, fields models.Fields) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("error encoding update for %s: %w", ref, err)
	}

	s.logger.Debug("writing document", "ref", ref, "fields", string(body))
	_, err = s.makeRequest(ctx, http.MethodPatch, documentPath(ref), body)
	if err != nil {
		return fmt.Errorf("error updating %s: %w", ref, err)
	}
	return nil
}

func (s *RemoteStore) Get(ctx context.Context, ref models.DocumentRef) (models.Document, error) {
	body, err := s.makeRequest(ctx, http.MethodGet, documentPath(ref), nil)
	if err != nil {
		return models.Document{}, fmt.Errorf("error reading %s: %w", ref, err)
	}

	doc := models.Document{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return models.Document{}, fmt.Errorf("error parsing %s: %w", ref, err)
	}
	return doc, nil
}

func (s *RemoteStore) List(ctx context.Context, collection string) ([]models.Document, error) {
	body, err := s.makeRequest(ctx, http.MethodGet, "/v1/documents/"+url.PathEscape(collection), nil)
	if err != nil {
		return nil, fmt.Errorf("error reading collection %s: %w", collection, err)
	}

	docs := []models.Document{}
	if err := json.Unmarshal(body, &docs); err != nil {
		return nil, fmt.Errorf("error parsing collection %s: %w", collection, err)
	}
	return docs, nil
}

// Subscribe delivers the current documents of collection followed by every
// change to them until ctx is cancelled.
func (s *RemoteStore) Subscribe(ctx context.Context, collection string, documents chan<- models.Document) error {
	client := sse.NewClient(s.baseURL + "/v1/events")
	client.Headers[constants.ClientIDHeader] = s.clientID

	reconnect := backoff.NewExponentialBackOff()
	reconnect.MaxElapsedTime = s.ReconnectTimeout
	client.ReconnectStrategy = backoff.WithContext(reconnect, ctx)

	client.OnConnect(func(_ *sse.Client) {
		s.logger.Info("Connected to document store, listening for changes...", "collection", collection)
	})
	client.OnDisconnect(func(_ *sse.Client) {
		s.logger.Info("Disconnected from document store", "collection", collection)
	})

	events := make(chan *sse.Event)
	if err := client.SubscribeChanWithContext(ctx, collection, events); err != nil {
		return fmt.Errorf("error subscribing to %s: %w", collection, err)
	}

	current, err := s.List(ctx, collection)
	if err != nil {
		return err
	}

	go func() {
		// the sse client closes events once ctx is done, keep it from blocking until then
		defer func() {
			go func() {
				for range events {
				}
			}()
		}()

		for _, doc := range current {
			select {
			case documents <- doc:
			case <-ctx.Done():
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				if len(event.Data) == 0 {
					continue
				}
				doc := models.Document{}
				if err := json.Unmarshal(event.Data, &doc); err != nil {
					s.logger.Error("error parsing change event", "collection", collection, "err", err)
					continue
				}
				select {
				case documents <- doc:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return nil
}

func (s *RemoteStore) makeRequest(ctx context.Context, verb string, path string, body []byte) ([]byte, error) {

	req, err := http.NewRequestWithContext(ctx, verb, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	// set headers
	req.Header.Set(constants.ClientIDHeader, s.clientID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// make the request
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", glowerrors.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", glowerrors.ErrStoreUnavailable, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// all good
		return responseBody, nil
	case http.StatusNotFound:
		return nil, glowerrors.NotFoundf("%s", path)
	case http.StatusBadRequest:
		return nil, glowerrors.InvalidInputf("%s", strings.TrimSpace(string(responseBody)))
	default:
		s.logger.Error("Error making document store call", "path", path, "status", resp.Status)
		return nil, fmt.Errorf("%w: %s", glowerrors.ErrStoreUnavailable, resp.Status)
	}
}

func documentPath(ref models.DocumentRef) string {
	return fmt.Sprintf("/v1/documents/%s/%s", url.PathEscape(ref.Collection), url.PathEscape(ref.ID))
}

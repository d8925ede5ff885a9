package raindrop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"x2raindrop/internal/domain"
)

// DefaultBaseURL is the Raindrop.io REST API root.
const DefaultBaseURL = "https://api.raindrop.io/rest/v1"

const (
	requestTimeout = 30 * time.Second
	maxBodyBytes   = 4 << 20
)

// APIError is a failed Raindrop API call.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("raindrop %s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("raindrop %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// Client is a Raindrop.io REST client authenticated with a test token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        logrus.FieldLogger
}

// New creates a Raindrop client.
func New(opts Options, logger logrus.FieldLogger) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &Client{
		baseURL:    baseURL,
		token:      strings.TrimSpace(opts.Token),
		httpClient: httpClient,
		log:        logger.WithField("component", "raindrop_client"),
	}
}

type collectionRef struct {
	ID int64 `json:"$id"`
}

type raindropItem struct {
	ID         int64          `json:"_id"`
	Link       string         `json:"link"`
	Title      string         `json:"title"`
	Collection *collectionRef `json:"collection"`
}

type createBody struct {
	Link       string        `json:"link"`
	Title      string        `json:"title,omitempty"`
	Excerpt    string        `json:"excerpt,omitempty"`
	Note       string        `json:"note,omitempty"`
	Tags       []string      `json:"tags,omitempty"`
	Collection collectionRef `json:"collection"`
}

// envelope is the common response shape: {"result": bool, "item"/"items": ..., "errorMessage": ...}.
type envelope struct {
	Result       bool            `json:"result"`
	Item         json.RawMessage `json:"item"`
	Items        json.RawMessage `json:"items"`
	Error        string          `json:"error"`
	ErrorMessage string          `json:"errorMessage"`
}

// CreateBookmark creates one raindrop. The source item id is not a Raindrop
// field; when the request has no excerpt it is appended to the note, and the
// note doubles as the excerpt.
func (c *Client) CreateBookmark(ctx context.Context, req domain.CreationRequest) (domain.CreatedBookmark, error) {
	body := createBody{
		Link:       req.URL,
		Title:      req.Title,
		Excerpt:    req.Excerpt,
		Note:       req.Note,
		Tags:       req.Tags,
		Collection: collectionRef{ID: req.CollectionID},
	}
	if body.Excerpt == "" {
		if req.SourceItemID != "" {
			body.Note = strings.TrimSpace(body.Note + "\nX post " + req.SourceItemID)
		}
		body.Excerpt = body.Note
	}

	log := c.log.WithFields(logrus.Fields{"link": req.URL, "collection_id": req.CollectionID})
	log.WithField("tags", req.Tags).Debug("Creating raindrop")

	var env envelope
	if err := c.do(ctx, http.MethodPost, "/raindrop", body, &env); err != nil {
		log.WithError(err).Error("Failed to create raindrop")
		return domain.CreatedBookmark{}, err
	}
	var item raindropItem
	if err := json.Unmarshal(env.Item, &item); err != nil {
		return domain.CreatedBookmark{}, fmt.Errorf("raindrop create: decoding item: %w", err)
	}

	created := domain.CreatedBookmark{
		ID:           item.ID,
		URL:          req.URL,
		Title:        item.Title,
		CollectionID: req.CollectionID,
	}
	log.WithFields(logrus.Fields{"id": created.ID, "title": created.Title}).Info("Created raindrop")
	return created, nil
}

type collectionItem struct {
	ID     int64          `json:"_id"`
	Title  string         `json:"title"`
	Count  int            `json:"count"`
	Parent *collectionRef `json:"parent"`
}

// ListCollections returns root collections followed by nested ones.
func (c *Client) ListCollections(ctx context.Context) ([]domain.Collection, error) {
	var out []domain.Collection
	for _, path := range []string{"/collections", "/collections/childrens"} {
		var env envelope
		if err := c.do(ctx, http.MethodGet, path, nil, &env); err != nil {
			return nil, err
		}
		var items []collectionItem
		if len(env.Items) > 0 {
			if err := json.Unmarshal(env.Items, &items); err != nil {
				return nil, fmt.Errorf("raindrop %s: decoding items: %w", path, err)
			}
		}
		for _, it := range items {
			col := domain.Collection{ID: it.ID, Title: it.Title, Count: it.Count}
			if it.Parent != nil {
				id := it.Parent.ID
				col.ParentID = &id
			}
			out = append(out, col)
		}
	}
	c.log.WithField("count", len(out)).Debug("Listed collections")
	return out, nil
}

// CollectionByTitle finds a collection by case-insensitive title. The boolean
// is false when no collection matches.
func (c *Client) CollectionByTitle(ctx context.Context, title string) (domain.Collection, bool, error) {
	cols, err := c.ListCollections(ctx)
	if err != nil {
		return domain.Collection{}, false, err
	}
	want := strings.ToLower(strings.TrimSpace(title))
	for _, col := range cols {
		if strings.ToLower(col.Title) == want {
			return col, true, nil
		}
	}
	return domain.Collection{}, false, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out *envelope) error {
	if c.token == "" {
		return fmt.Errorf("raindrop token is empty")
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("raindrop %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("raindrop %s %s: reading response: %w", method, path, err)
	}

	decodeErr := json.Unmarshal(respBody, out)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(respBody))
		if decodeErr == nil && (out.ErrorMessage != "" || out.Error != "") {
			msg = out.ErrorMessage
			if msg == "" {
				msg = out.Error
			}
		}
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return fmt.Errorf("raindrop %s %s: decoding response: %w", method, path, decodeErr)
	}
	if !out.Result {
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Message: out.ErrorMessage}
	}
	return nil
}

package syncer

import (
	"context"
	"errors"
	"io"
	"iter"

	"github.com/sirupsen/logrus"

	"x2raindrop/internal/domain"
)

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeSource yields a fixed list of items and records deletions.
type fakeSource struct {
	items     []domain.Item
	fetchErr  error
	deleteErr map[string]error
	deleteNo  map[string]bool
	deleted   []string
}

func (f *fakeSource) Bookmarks(_ context.Context, maxResults int) iter.Seq2[domain.Item, error] {
	return func(yield func(domain.Item, error) bool) {
		for i, item := range f.items {
			if maxResults > 0 && i >= maxResults {
				return
			}
			if !yield(item, nil) {
				return
			}
		}
		if f.fetchErr != nil {
			yield(domain.Item{}, f.fetchErr)
		}
	}
}

func (f *fakeSource) DeleteBookmark(_ context.Context, id string) (bool, error) {
	f.deleted = append(f.deleted, id)
	if err := f.deleteErr[id]; err != nil {
		return false, err
	}
	if f.deleteNo[id] {
		return false, nil
	}
	return true, nil
}

// fakeDestination records creations and fails for configured URLs.
type fakeDestination struct {
	created []domain.CreationRequest
	failURL map[string]bool
	nextID  int64
}

var errCreate = errors.New("destination unavailable")

func (f *fakeDestination) CreateBookmark(_ context.Context, req domain.CreationRequest) (domain.CreatedBookmark, error) {
	if f.failURL[req.URL] {
		return domain.CreatedBookmark{}, errCreate
	}
	f.nextID++
	f.created = append(f.created, req)
	return domain.CreatedBookmark{ID: f.nextID, URL: req.URL, Title: req.Title, CollectionID: req.CollectionID}, nil
}

func item(id string, external ...string) domain.Item {
	return domain.Item{
		ID:            id,
		Text:          "post " + id,
		Author:        &domain.Author{Username: "alice", Name: "Alice"},
		CanonicalURL:  "https://x.com/alice/status/" + id,
		ExternalLinks: external,
	}
}

package xapi

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"x2raindrop/internal/domain"
)

// maxPageSize is the largest page the bookmarks endpoint serves.
const maxPageSize = 100

type urlEntity struct {
	URL          string `json:"url"`
	ExpandedURL  string `json:"expanded_url"`
	UnwrappedURL string `json:"unwrapped_url"`
}

type tweetEntities struct {
	URLs []urlEntity `json:"urls"`
}

type tweet struct {
	ID        string        `json:"id"`
	Text      string        `json:"text"`
	AuthorID  string        `json:"author_id"`
	CreatedAt string        `json:"created_at"`
	Entities  tweetEntities `json:"entities"`
}

type user struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type bookmarksPage struct {
	Data     []tweet `json:"data"`
	Includes struct {
		Users []user `json:"users"`
	} `json:"includes"`
	Meta struct {
		ResultCount int    `json:"result_count"`
		NextToken   string `json:"next_token"`
	} `json:"meta"`
}

// Bookmarks returns the authenticated user's bookmarks as a lazy sequence in
// API order. Pages are fetched on demand; iteration stops after the last page
// or once maxResults items were yielded (0 means no limit). The sequence can
// be ranged over once; later attempts yield ErrSequenceConsumed. A fetch error
// is yielded once and ends the sequence.
func (c *Client) Bookmarks(ctx context.Context, maxResults int) iter.Seq2[domain.Item, error] {
	var consumed atomic.Bool
	return func(yield func(domain.Item, error) bool) {
		if consumed.Swap(true) {
			yield(domain.Item{}, ErrSequenceConsumed)
			return
		}

		userID, err := c.UserID(ctx)
		if err != nil {
			yield(domain.Item{}, err)
			return
		}

		log := c.log.WithField("user_id", userID)
		path := "/users/" + url.PathEscape(userID) + "/bookmarks"
		query := url.Values{
			"max_results":  {strconv.Itoa(maxPageSize)},
			"expansions":   {"author_id"},
			"tweet.fields": {"created_at,text,entities,author_id"},
			"user.fields":  {"username,name"},
		}

		fetched, pages := 0, 0
		for {
			pages++
			log.WithField("page", pages).Debug("Fetching bookmarks page")

			var page bookmarksPage
			if err := c.do(ctx, http.MethodGet, path, query, &page); err != nil {
				yield(domain.Item{}, fmt.Errorf("failed to fetch bookmarks page %d: %w", pages, err))
				return
			}

			users := make(map[string]user, len(page.Includes.Users))
			for _, u := range page.Includes.Users {
				users[u.ID] = u
			}

			for _, t := range page.Data {
				if !yield(normalize(t, users), nil) {
					return
				}
				fetched++
				if maxResults > 0 && fetched >= maxResults {
					log.WithFields(logrus.Fields{"max_results": maxResults, "pages": pages}).Info("Reached max results limit")
					return
				}
			}

			if len(page.Data) == 0 || page.Meta.NextToken == "" {
				break
			}
			query.Set("pagination_token", page.Meta.NextToken)
		}

		log.WithFields(logrus.Fields{
			"total":        fetched,
			"pages":        pages,
			"api_requests": c.RequestCount(),
		}).Info("Fetched all bookmarks")
	}
}

// normalize converts a raw tweet into an Item, resolving its author from the
// page's users side-table.
func normalize(t tweet, users map[string]user) domain.Item {
	item := domain.Item{
		ID:            t.ID,
		Text:          t.Text,
		ExternalLinks: extractExternalURLs(t),
	}
	if u, ok := users[t.AuthorID]; ok && t.AuthorID != "" {
		item.Author = &domain.Author{Username: u.Username, Name: u.Name}
	}
	if t.CreatedAt != "" {
		if ts, err := time.Parse(time.RFC3339, t.CreatedAt); err == nil {
			item.CreatedAt = ts
		}
	}
	item.CanonicalURL = permalink(t.ID, item.Author)
	return item
}

func permalink(id string, author *domain.Author) string {
	if author != nil && author.Username != "" {
		return fmt.Sprintf("https://x.com/%s/status/%s", author.Username, id)
	}
	return "https://x.com/i/status/" + id
}

// DeleteBookmark removes a post from the user's bookmarks. It reports whether
// the API confirmed the bookmark is gone. Each call costs one request and
// there is no batch variant.
func (c *Client) DeleteBookmark(ctx context.Context, id string) (bool, error) {
	userID, err := c.UserID(ctx)
	if err != nil {
		return false, err
	}

	log := c.log.WithField("item_id", id)
	log.WithField("total_requests", c.RequestCount()+1).Warn("Deleting bookmark (uses 1 API request)")

	var resp struct {
		Data struct {
			Bookmarked *bool `json:"bookmarked"`
		} `json:"data"`
	}
	path := "/users/" + url.PathEscape(userID) + "/bookmarks/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return false, err
	}

	ok := resp.Data.Bookmarked != nil && !*resp.Data.Bookmarked
	if !ok {
		log.Warn("Delete bookmark returned unexpected response")
		return false, nil
	}
	log.Debug("Deleted bookmark")
	return true, nil
}

package domain

import "time"

// Author is the user who posted a source item. Either field may be empty.
type Author struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

// Item represents a saved post fetched from the source account.
type Item struct {
	// ID is the opaque, stable identifier of the post.
	ID string `json:"id"`

	// Text is the full body of the post.
	Text string `json:"text"`

	// Author is nil when the API did not include author data for the post.
	Author *Author `json:"author,omitempty"`

	// CreatedAt is zero when the API omitted or garbled the timestamp.
	CreatedAt time.Time `json:"created_at,omitempty"`

	// CanonicalURL is the platform-hosted permalink. It is never empty.
	CanonicalURL string `json:"canonical_url"`

	// ExternalLinks are URLs found in the body that point outside the platform,
	// in the order they appear.
	ExternalLinks []string `json:"external_links,omitempty"`
}

// FirstExternalLink returns the first external link, if any.
func (i Item) FirstExternalLink() (string, bool) {
	if len(i.ExternalLinks) == 0 {
		return "", false
	}
	return i.ExternalLinks[0], true
}

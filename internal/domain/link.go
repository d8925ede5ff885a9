package domain

import "fmt"

// LinkMode selects which URL(s) are bookmarked for an item.
type LinkMode string

const (
	// LinkModePermalink bookmarks the post permalink.
	LinkModePermalink LinkMode = "permalink"
	// LinkModeFirstExternal bookmarks the first external URL, falling back to the permalink.
	LinkModeFirstExternal LinkMode = "first_external_url"
	// LinkModeBoth bookmarks the external URL and the permalink, see BothBehavior.
	LinkModeBoth LinkMode = "both"
)

// BothBehavior controls LinkModeBoth when the item carries an external URL.
type BothBehavior string

const (
	// BothOneExternalPlusNote creates one bookmark for the external URL with the permalink in its note.
	BothOneExternalPlusNote BothBehavior = "one_external_plus_note"
	// BothTwoBookmarks creates separate bookmarks for the external URL and the permalink.
	BothTwoBookmarks BothBehavior = "two_raindrops"
)

// ParseLinkMode validates a configured link mode.
func ParseLinkMode(s string) (LinkMode, error) {
	switch m := LinkMode(s); m {
	case LinkModePermalink, LinkModeFirstExternal, LinkModeBoth:
		return m, nil
	}
	return "", fmt.Errorf("unknown link mode %q", s)
}

// ParseBothBehavior validates a configured both-behavior.
func ParseBothBehavior(s string) (BothBehavior, error) {
	switch b := BothBehavior(s); b {
	case BothOneExternalPlusNote, BothTwoBookmarks:
		return b, nil
	}
	return "", fmt.Errorf("unknown both behavior %q", s)
}

// PlannedLink is one URL to bookmark for an item, with an optional note.
type PlannedLink struct {
	URL  string
	Note string
}

// CreationRequest describes one bookmark to create in the destination service.
type CreationRequest struct {
	URL          string
	Title        string
	Excerpt      string
	Tags         []string
	CollectionID int64
	Note         string

	// SourceItemID is kept for traceability; it is not a native destination field.
	SourceItemID string
}

// CreatedBookmark is the destination's view of a bookmark it just created.
type CreatedBookmark struct {
	ID           int64
	URL          string
	Title        string
	CollectionID int64
}

// Collection is a destination folder that bookmarks are created in.
type Collection struct {
	ID       int64
	Title    string
	Count    int
	ParentID *int64
}

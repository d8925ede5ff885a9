package syncer

import (
	"errors"
	"fmt"

	"x2raindrop/internal/domain"
)

// ErrNoCollection is returned when requests are built without a target collection.
var ErrNoCollection = errors.New("collection id must be set")

// ResolveLinks decides which URL(s) to bookmark for an item.
func ResolveLinks(item domain.Item, mode domain.LinkMode, behavior domain.BothBehavior) ([]domain.PlannedLink, error) {
	if item.CanonicalURL == "" {
		return nil, fmt.Errorf("item %s has no permalink", item.ID)
	}
	permalink := domain.PlannedLink{URL: item.CanonicalURL}
	external, hasExternal := item.FirstExternalLink()

	switch mode {
	case domain.LinkModePermalink:
		return []domain.PlannedLink{permalink}, nil

	case domain.LinkModeFirstExternal:
		if !hasExternal {
			return []domain.PlannedLink{permalink}, nil
		}
		return []domain.PlannedLink{{URL: external, Note: "From: " + item.CanonicalURL}}, nil

	case domain.LinkModeBoth:
		if !hasExternal {
			return []domain.PlannedLink{permalink}, nil
		}
		switch behavior {
		case domain.BothOneExternalPlusNote:
			return []domain.PlannedLink{{URL: external, Note: "X Post: " + item.CanonicalURL}}, nil
		case domain.BothTwoBookmarks:
			return []domain.PlannedLink{
				{URL: external, Note: "From: " + item.CanonicalURL},
				permalink,
			}, nil
		default:
			return nil, fmt.Errorf("unknown both behavior %q", behavior)
		}

	default:
		return nil, fmt.Errorf("unknown link mode %q", mode)
	}
}

// BuildRequests turns an item into the creation requests for its planned links.
// Every request shares the item's title, full text as excerpt, and tags.
func BuildRequests(item domain.Item, settings Settings) ([]domain.CreationRequest, error) {
	if settings.CollectionID == 0 {
		return nil, ErrNoCollection
	}
	links, err := ResolveLinks(item, settings.LinkMode, settings.BothBehavior)
	if err != nil {
		return nil, err
	}

	title := item.Title()
	reqs := make([]domain.CreationRequest, 0, len(links))
	for _, l := range links {
		reqs = append(reqs, domain.CreationRequest{
			URL:          l.URL,
			Title:        title,
			Excerpt:      item.Text,
			Tags:         append([]string(nil), settings.Tags...),
			CollectionID: settings.CollectionID,
			Note:         l.Note,
			SourceItemID: item.ID,
		})
	}
	return reqs, nil
}

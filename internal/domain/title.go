package domain

import "strings"

const (
	maxTitleLength    = 150
	maxTitleBodyChars = 100
	ellipsis          = "..."
)

// Title builds a bookmark title for the item.
//
// With a known author the title is "Name (@user): body", where the body is cut
// to 100 characters plus an ellipsis. Without one it is the bare body. Either
// way the result never exceeds 150 characters.
func (i Item) Title() string {
	prefix := i.authorPrefix()
	if prefix == "" {
		return truncateRunes(i.Text, maxTitleLength)
	}

	body := i.Text
	if runeLen(body) > maxTitleBodyChars {
		body = truncateRunes(body, maxTitleBodyChars) + ellipsis
	}
	return truncateRunes(prefix+": "+body, maxTitleLength)
}

func (i Item) authorPrefix() string {
	if i.Author == nil || i.Author.Username == "" {
		return ""
	}
	handle := "@" + i.Author.Username
	if name := strings.TrimSpace(i.Author.Name); name != "" {
		return name + " (" + handle + ")"
	}
	return handle
}

func runeLen(s string) int {
	return len([]rune(s))
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

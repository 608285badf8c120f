package service

import "regexp"

// mentionPattern matches the editor's mention markup: @[Display Name](user-id).
var mentionPattern = regexp.MustCompile(`@\[([^\]\n]+)\]\(([0-9A-Za-z-]+)\)`)

// ParseMentions returns the user ids mentioned in body, deduplicated in
// first-seen order.
func ParseMentions(body string) []string {
	matches := mentionPattern.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		id := m[2]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// PlainMentions replaces mention markup with "@Display Name".
func PlainMentions(body string) string {
	return mentionPattern.ReplaceAllString(body, "@$1")
}

package domain

import (
	"regexp"
	"strings"
)

// IssueType is the root level of the category tree.
type IssueType string

const (
	IssueTypeComplaint   IssueType = "Complaint"
	IssueTypeRequest     IssueType = "Request"
	IssueTypeInformation IssueType = "Information"
)

// Category is one node of the issueType > L1 > L2 > L3 > L4 tree.
type Category struct {
	ID        string
	IssueType IssueType
	L1        string
	L2        string
	L3        string
	L4        string
	ParentID  *string
	IsActive  bool
}

// Path returns the non-empty segments from issue type downwards.
func (c *Category) Path() []string {
	segments := []string{string(c.IssueType), c.L1, c.L2, c.L3, c.L4}
	out := make([]string, 0, len(segments))
	for _, s := range segments {
		if strings.TrimSpace(s) == "" {
			break
		}
		out = append(out, s)
	}
	return out
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// CategoryID generates the stable id for a category path. Segments are
// lowercased and collapsed to dash-separated slugs, joined by "__".
func CategoryID(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-"), "-")
		if slug == "" {
			break
		}
		parts = append(parts, slug)
	}
	return strings.Join(parts, "__")
}

package exam

import "strings"

// CommentSeparator joins general comments into the single
// sections.section_comments column. Comments containing it are rejected at
// submission time because the split has no escaping.
const CommentSeparator = "|~|"

// EncodeComments joins comments into their stored form. An empty list encodes
// to the empty string.
func EncodeComments(comments []string) string {
	return strings.Join(comments, CommentSeparator)
}

// DecodeComments splits a stored column back into comments. The empty string
// decodes to an empty, non-nil list rather than [""].
func DecodeComments(stored string) []string {
	if stored == "" {
		return []string{}
	}
	return strings.Split(stored, CommentSeparator)
}

// normalizeComments trims each comment and drops blank ones so that
// DecodeComments(EncodeComments(c)) returns c unchanged.
func normalizeComments(comments []string) []string {
	out := make([]string, 0, len(comments))
	for _, c := range comments {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

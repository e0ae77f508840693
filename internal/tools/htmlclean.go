package tools

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

var noisyTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"svg":      true,
	"iframe":   true,
	"link":     true,
	"meta":     true,
}

var noisyAttrs = map[string]bool{
	"style":         true,
	"srcset":        true,
	"sizes":         true,
	"loading":       true,
	"decoding":      true,
	"fetchpriority": true,
	"tabindex":      true,
}

// cleanHTML strips tags and attributes that carry no content (scripts,
// styles, tracking attributes) so downstream conversion works on the
// document body only. On parse failure the input is returned as-is.
func cleanHTML(raw string) string {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return raw
	}

	body := findNode(doc, "body")
	if body == nil {
		return raw
	}

	pruneNode(body)

	var sb strings.Builder
	if err := html.Render(&sb, body); err != nil {
		return raw
	}
	return sb.String()
}

func findNode(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func pruneNode(n *html.Node) {
	var next *html.Node
	for c := n.FirstChild; c != nil; c = next {
		next = c.NextSibling
		switch {
		case c.Type == html.CommentNode:
			n.RemoveChild(c)
		case c.Type == html.ElementNode && noisyTags[c.Data]:
			n.RemoveChild(c)
		default:
			pruneNode(c)
		}
	}

	if n.Type != html.ElementNode {
		return
	}
	kept := n.Attr[:0]
	for _, attr := range n.Attr {
		if noisyAttrs[attr.Key] {
			continue
		}
		if strings.HasPrefix(attr.Key, "data-") || strings.HasPrefix(attr.Key, "aria-") {
			continue
		}
		kept = append(kept, attr)
	}
	n.Attr = kept
}

// cleanText collapses all whitespace runs into single spaces.
func cleanText(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		space = false
		sb.WriteRune(r)
	}
	return sb.String()
}

// truncateText cuts s at max runes, appending an ellipsis when cut.
func truncateText(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

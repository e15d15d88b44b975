package steps

import (
	"strings"

	"golang.org/x/net/html"
)

// dedupe removes exact duplicates while preserving first-seen order.
func dedupe(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}

// dedupeFold removes case-insensitive duplicates while preserving
// first-seen order and original casing.
func dedupeFold(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		key := strings.ToLower(kw)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, kw)
	}
	return out
}

// nonEmpty trims every keyword and drops the blanks.
func nonEmpty(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if trimmed := strings.TrimSpace(kw); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// htmlKeywords pulls candidate keywords out of raw page HTML: the document
// title plus any comma-separated meta keywords. Parse errors yield nothing;
// scraped pages are frequently malformed and the caller has other
// extraction paths.
func htmlKeywords(raw string) []string {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil
	}

	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					if title := strings.TrimSpace(n.FirstChild.Data); title != "" {
						out = append(out, title)
					}
				}
			case "meta":
				var name, content string
				for _, attr := range n.Attr {
					switch strings.ToLower(attr.Key) {
					case "name":
						name = strings.ToLower(attr.Val)
					case "content":
						content = attr.Val
					}
				}
				if name == "keywords" && content != "" {
					for _, kw := range strings.Split(content, ",") {
						if trimmed := strings.TrimSpace(kw); trimmed != "" {
							out = append(out, trimmed)
						}
					}
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return out
}

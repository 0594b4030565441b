package snapshot

import (
	"strings"

	"golang.org/x/net/html"
)

// CountInternalLinks counts anchor elements whose href points at a same-site
// page path. Asset links and anchors-only hrefs are excluded; the count
// feeds the verifier's link-sparseness quality check.
func CountInternalLinks(doc string) int {
	node, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return 0
	}
	count := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "href" && isInternalPageLink(attr.Val) {
					count++
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return count
}

func isInternalPageLink(href string) bool {
	if len(href) < 2 || href[0] != '/' || href[1] == '/' {
		return false
	}
	// Letters only after the slash filters out asset paths like /favicon.ico
	// matched by extension below.
	c := href[1]
	if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
		return false
	}
	for _, ext := range []string{".js", ".css", ".png", ".jpg", ".jpeg", ".svg", ".ico", ".webp", ".woff", ".woff2", ".xml", ".txt"} {
		if strings.HasSuffix(href, ext) {
			return false
		}
	}
	return true
}

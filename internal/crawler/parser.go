package crawler

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Anchors is what ParseAnchors extracts from a document.
type Anchors struct {
	// Base is the href of the first <base> element, or empty.
	Base string

	// Hrefs are the raw href values of <a> elements in document order.
	// Anchors without an href attribute are skipped.
	Hrefs []string
}

// ParseAnchors parses HTML and returns its anchor targets.
//
// Design decision: We use golang.org/x/net/html rather than regex because
// it handles malformed markup the same way browsers do.
func ParseAnchors(content io.Reader) (*Anchors, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &Anchors{Hrefs: make([]string, 0)}
	baseSeen := false

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a":
				if href, ok := getAttr(n, "href"); ok {
					result.Hrefs = append(result.Hrefs, href)
				}
			case "base":
				if href, ok := getAttr(n, "href"); ok && !baseSeen {
					result.Base = strings.TrimSpace(href)
					baseSeen = true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return result, nil
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

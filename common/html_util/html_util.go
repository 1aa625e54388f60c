// Package html_util contains *html.Node level helpers used by extraction code
// when goquery selections are too coarse, e.g. walking dt/dd sibling runs or
// serializing one container subtree for restricted regex passes.
package html_util

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func GetNodeAttr(node *html.Node, attrName string) *html.Attribute {
	var result *html.Attribute

	for i := range node.Attr {
		attr := &node.Attr[i]
		if attr.Key == attrName {
			result = attr
			break
		}
	}

	return result
}

// GetNodeAttrVal returns value of specified attreibute. If such attribute cannot
// be found, this function will return `defaultValue` instead.
func GetNodeAttrVal(node *html.Node, attrName string, defaultValue string) (string, bool) {
	if attr := GetNodeAttr(node, attrName); attr != nil {
		return attr.Val, true
	} else {
		return defaultValue, false
	}
}

// NodeHasID checks if given node is an element carrying specified id value.
func NodeHasID(node *html.Node, id string) bool {
	if node.Type != html.ElementNode {
		return false
	}

	val, ok := GetNodeAttrVal(node, "id", "")

	return ok && val == id
}

// NodeHasClass checks if given node carries specified class name in its
// class attribute.
func NodeHasClass(node *html.Node, class string) bool {
	val, _ := GetNodeAttrVal(node, "class", "")

	for _, name := range strings.Fields(val) {
		if name == class {
			return true
		}
	}

	return false
}

// NodeText returns all text content under given node, joined with single
// spaces between text nodes.
func NodeText(node *html.Node) string {
	parts := []string{}
	collectText(node, &parts)

	return strings.Join(parts, " ")
}

func collectText(node *html.Node, parts *[]string) {
	if node.Type == html.TextNode {
		if text := strings.TrimSpace(node.Data); text != "" {
			*parts = append(*parts, text)
		}
		return
	}

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, parts)
	}
}

// RenderNode serializes the subtree rooted at given node back to HTML text.
// Render errors are treated as empty output, malformed subtrees are expected
// input for this code base.
func RenderNode(node *html.Node) string {
	builder := &strings.Builder{}
	if err := html.Render(builder, node); err != nil {
		return ""
	}

	return builder.String()
}

// FollowingSiblingsUntil collects element siblings after `start` whose tag
// matches `want`, stopping as soon as a sibling with tag `stop` is met.
func FollowingSiblingsUntil(start *html.Node, want, stop atom.Atom) []*html.Node {
	result := []*html.Node{}

	for sibling := start.NextSibling; sibling != nil; sibling = sibling.NextSibling {
		if sibling.Type != html.ElementNode {
			continue
		}

		if sibling.DataAtom == stop {
			break
		}
		if sibling.DataAtom == want {
			result = append(result, sibling)
		}
	}

	return result
}

// FindAnchors collects all <a> elements with a non-empty href attribute under
// given node in document order.
func FindAnchors(node *html.Node) []*html.Node {
	anchors := []*html.Node{}
	walkAnchors(node, &anchors)

	return anchors
}

func walkAnchors(node *html.Node, anchors *[]*html.Node) {
	if node.Type == html.ElementNode && node.DataAtom == atom.A {
		if href, _ := GetNodeAttrVal(node, "href", ""); href != "" {
			*anchors = append(*anchors, node)
		}
	}

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		walkAnchors(child, anchors)
	}
}

// HasAncestorWithID reports whether any ancestor of given node carries
// specified id value.
func HasAncestorWithID(node *html.Node, id string) bool {
	for parent := node.Parent; parent != nil; parent = parent.Parent {
		if NodeHasID(parent, id) {
			return true
		}
	}

	return false
}

// Package htmlutil holds the html.Node plumbing shared by scraping code:
// text extraction and explicit document-order scans over a flattened node
// sequence. Scans over a precomputed slice (rather than a live tree walk)
// keep "everything between anchor A and anchor B" logic bounded and cheap.
package htmlutil

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// StrippedText concatenates the trimmed text segments beneath node.
// Segments that are pure whitespace contribute nothing.
func StrippedText(node *html.Node) string {
	var buffer bytes.Buffer
	strippedTextRecursive(node, &buffer)
	return buffer.String()
}

func strippedTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(strings.TrimSpace(node.Data))
		return
	}
	child := node.FirstChild
	for child != nil {
		strippedTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

func Attr(node *html.Node, key string) string {
	if node == nil {
		return ""
	}
	for _, a := range node.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func IsElement(node *html.Node, tag string) bool {
	return node != nil && node.Type == html.ElementNode && node.Data == tag
}

// Flatten returns every descendant of root in document order, root
// excluded.
func Flatten(root *html.Node) []*html.Node {
	var out []*html.Node
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		child := n.FirstChild
		for child != nil {
			out = append(out, child)
			visit(child)
			child = child.NextSibling
		}
	}
	if root != nil {
		visit(root)
	}
	return out
}

// FindAll returns the descendants of root matching pred, in document
// order. root itself is never included.
func FindAll(root *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	for _, n := range Flatten(root) {
		if pred(n) {
			out = append(out, n)
		}
	}
	return out
}

// FindFirst returns the first descendant of root matching pred, or nil.
func FindFirst(root *html.Node, pred func(*html.Node) bool) *html.Node {
	if root == nil {
		return nil
	}
	child := root.FirstChild
	for child != nil {
		if pred(child) {
			return child
		}
		if found := FindFirst(child, pred); found != nil {
			return found
		}
		child = child.NextSibling
	}
	return nil
}

// Ancestor returns the nearest ancestor of node that is the given
// element, or nil.
func Ancestor(node *html.Node, tag string) *html.Node {
	if node == nil {
		return nil
	}
	parent := node.Parent
	for parent != nil {
		if IsElement(parent, tag) {
			return parent
		}
		parent = parent.Parent
	}
	return nil
}

func indexOf(seq []*html.Node, node *html.Node) int {
	for i, n := range seq {
		if n == node {
			return i
		}
	}
	return -1
}

// NextAfter returns the first node after start (in the document order
// captured by seq) that matches pred, or nil. start's own subtree counts
// as "after" since descendants follow their parent in document order.
func NextAfter(seq []*html.Node, start *html.Node, pred func(*html.Node) bool) *html.Node {
	i := indexOf(seq, start)
	if i < 0 {
		return nil
	}
	for _, n := range seq[i+1:] {
		if pred(n) {
			return n
		}
	}
	return nil
}

// PrevBefore returns the last node before start that matches pred, or
// nil.
func PrevBefore(seq []*html.Node, start *html.Node, pred func(*html.Node) bool) *html.Node {
	i := indexOf(seq, start)
	if i < 0 {
		return nil
	}
	for j := i - 1; j >= 0; j-- {
		if pred(seq[j]) {
			return seq[j]
		}
	}
	return nil
}

// Between returns the nodes strictly after start and, when stop is
// non-nil, strictly before stop.
func Between(seq []*html.Node, start, stop *html.Node) []*html.Node {
	i := indexOf(seq, start)
	if i < 0 {
		return nil
	}
	out := seq[i+1:]
	if stop == nil {
		return out
	}
	for j, n := range out {
		if n == stop {
			return out[:j]
		}
	}
	return out
}

// NextSiblingElement returns the next sibling of node that is the given
// element, skipping text and comment nodes.
func NextSiblingElement(node *html.Node, tag string) *html.Node {
	if node == nil {
		return nil
	}
	sibling := node.NextSibling
	for sibling != nil {
		if IsElement(sibling, tag) {
			return sibling
		}
		sibling = sibling.NextSibling
	}
	return nil
}

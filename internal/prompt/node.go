package prompt

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

// node is one XML element with its children in document order. The prompt
// files are small hand-edited documents, so order matters for the rendered
// output and a generic tree beats per-section structs.
type node struct {
	name     string
	text     string
	children []*node
}

func parseXML(data []byte) (*node, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))

	var stack []*node
	var root *node

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			n := &node{name: t.Name.Local}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			} else if root == nil {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text += string(t)
			}
		}
	}

	if root != nil {
		trimText(root)
	}
	return root, nil
}

func trimText(n *node) {
	n.text = strings.TrimSpace(n.text)
	for _, c := range n.children {
		trimText(c)
	}
}

// child returns the first child with the given name, or nil.
func (n *node) child(name string) *node {
	if n == nil {
		return nil
	}
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// childText returns the text of the first child with the given name, or
// the fallback when absent or empty.
func (n *node) childText(name, fallback string) string {
	c := n.child(name)
	if c == nil || c.text == "" {
		return fallback
	}
	return c.text
}

func (n *node) isLeaf() bool {
	return len(n.children) == 0
}

// listValues reports whether a node's children form a homogeneous list
// (several leaf children sharing one tag), returning the items if so.
func (n *node) listValues() ([]string, bool) {
	if n == nil || len(n.children) < 2 {
		return nil, false
	}
	name := n.children[0].name
	items := make([]string, 0, len(n.children))
	for _, c := range n.children {
		if c.name != name || !c.isLeaf() {
			return nil, false
		}
		items = append(items, c.text)
	}
	return items, true
}

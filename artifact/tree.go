package artifact

import (
	"slices"
	"strings"
)

type treeNode struct {
	name     string
	children map[string]*treeNode
}

func (n *treeNode) child(name string) *treeNode {
	if n.children == nil {
		n.children = make(map[string]*treeNode)
	}
	c, ok := n.children[name]
	if !ok {
		c = &treeNode{name: name}
		n.children[name] = c
	}
	return c
}

func (n *treeNode) isDir() bool {
	return len(n.children) > 0
}

// Tree renders slash-separated paths as an indented tree, directories
// first, then files, each group in case-insensitive order.
func Tree(paths []string) string {
	root := &treeNode{}
	for _, p := range paths {
		node := root
		for _, part := range strings.Split(p, "/") {
			if part == "" {
				continue
			}
			node = node.child(part)
		}
	}

	var lines []string
	renderTree(root, "", &lines)
	return strings.Join(lines, "\n")
}

func renderTree(n *treeNode, prefix string, lines *[]string) {
	children := make([]*treeNode, 0, len(n.children))
	for _, c := range n.children {
		children = append(children, c)
	}
	slices.SortFunc(children, func(a, b *treeNode) int {
		if a.isDir() != b.isDir() {
			if a.isDir() {
				return -1
			}
			return 1
		}
		if c := strings.Compare(strings.ToLower(a.name), strings.ToLower(b.name)); c != 0 {
			return c
		}
		return strings.Compare(a.name, b.name)
	})

	for i, c := range children {
		connector, extension := "├── ", "│   "
		if i == len(children)-1 {
			connector, extension = "└── ", "    "
		}
		if c.isDir() {
			*lines = append(*lines, prefix+connector+c.name+"/")
			renderTree(c, prefix+extension, lines)
		} else {
			*lines = append(*lines, prefix+connector+c.name)
		}
	}
}

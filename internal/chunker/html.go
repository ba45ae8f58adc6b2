package chunker

import (
	"strings"

	"golang.org/x/net/html"
)

// ChunkHTML chunks a structured HTML document. Only the children of the
// designated content container are considered. A top-level h1 always starts
// a new chunk; other elements contribute their visible text and are packed
// greedily under the token bound. A missing container yields no chunks.
func (c *Chunker) ChunkHTML(src string) ([]string, error) {
	container, err := c.findContainer(src)
	if err != nil {
		return nil, err
	}
	if container == nil {
		return nil, nil
	}

	var chunks []string
	current := ""
	flush := func() {
		if t := strings.TrimSpace(current); t != "" {
			chunks = append(chunks, t)
		}
	}
	for el := container.FirstChild; el != nil; el = el.NextSibling {
		if el.Type != html.ElementNode {
			continue
		}
		if el.Data == "h1" {
			flush()
			current = elementText(el) + "\n\n"
			continue
		}
		text := strings.TrimSpace(elementText(el))
		if text == "" {
			continue
		}
		toAppend := text + "\n\n"
		potential := current + toAppend
		if c.count(potential) > c.maxTokens {
			flush()
			current = toAppend
		} else {
			current = potential
		}
	}
	flush()
	return chunks, nil
}

// findContainer parses src and locates the first element carrying the
// configured container class.
func (c *Chunker) findContainer(src string) (*html.Node, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, err
	}
	return findByClass(doc, c.container), nil
}

func findByClass(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode {
		for _, attr := range n.Attr {
			if attr.Key != "class" {
				continue
			}
			for _, f := range strings.Fields(attr.Val) {
				if f == class {
					return n
				}
			}
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findByClass(child, class); found != nil {
			return found
		}
	}
	return nil
}

// elementText concatenates the text of every descendant text node in
// document order.
func elementText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}

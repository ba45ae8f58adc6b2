package chunker

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/naufalpram/ai-rag-chat/internal/models"
)

// ChunkMultimodal chunks a structured HTML document for the multimodal
// pipeline. h1 and h2 are hard boundaries. Non-heading elements contribute
// their visible text as trimmed lines, packed greedily under the token
// bound, and any image references found in them attach to the current
// chunk. A chunk with neither text nor images is dropped.
func (c *Chunker) ChunkMultimodal(src string) ([]models.MultimodalChunk, error) {
	container, err := c.findContainer(src)
	if err != nil {
		return nil, err
	}
	if container == nil {
		return nil, nil
	}

	var chunks []models.MultimodalChunk
	var current models.MultimodalChunk
	flush := func() {
		if len(current.Text) > 0 || len(current.Images) > 0 {
			chunks = append(chunks, current)
		}
		current = models.MultimodalChunk{}
	}
	for el := container.FirstChild; el != nil; el = el.NextSibling {
		if el.Type != html.ElementNode {
			continue
		}
		if el.Data == "h1" || el.Data == "h2" {
			flush()
			if t := strings.TrimSpace(elementText(el)); t != "" {
				current.Text = append(current.Text, t)
			}
			continue
		}
		lines := textLines(el)
		if len(lines) > 0 {
			potential := make([]string, 0, len(current.Text)+len(lines))
			potential = append(potential, current.Text...)
			potential = append(potential, lines...)
			if c.count(strings.Join(potential, "\n")) > c.maxTokens {
				flush()
				current.Text = lines
			} else {
				current.Text = potential
			}
			current.Images = append(current.Images, collectImages(el)...)
			continue
		}
		current.Images = append(current.Images, collectImages(el)...)
	}
	flush()
	return chunks, nil
}

// textLines extracts the non-empty trimmed lines of an element's text.
func textLines(n *html.Node) []string {
	var lines []string
	for _, line := range strings.Split(elementText(n), "\n") {
		if t := strings.TrimSpace(line); t != "" {
			lines = append(lines, t)
		}
	}
	return lines
}

// collectImages gathers image URLs from the element itself and any nested
// img tags, in document order.
func collectImages(n *html.Node) []string {
	var urls []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == "img" {
			for _, attr := range node.Attr {
				if attr.Key == "src" && attr.Val != "" {
					urls = append(urls, attr.Val)
				}
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return urls
}

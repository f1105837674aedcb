// Package extract summarizes a rendered variant: title, element counts and
// visible text. The numbers feed the run manifest so variants can be
// compared at a glance.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Stats describes one document.
type Stats struct {
	Title string `json:"title"`
	// Elements counts element nodes by lower-case tag name.
	Elements      map[string]int `json:"elements"`
	Scripts       int            `json:"scripts"`
	InlineScripts int            `json:"inline_scripts"`
	Stylesheets   int            `json:"stylesheets"`
	StyleBlocks   int            `json:"style_blocks"`
	Images        int            `json:"images"`
	// Handlers counts on* event attributes.
	Handlers  int    `json:"handlers"`
	Text      string `json:"-"`
	TextChars int    `json:"text_chars"`
	Words     int    `json:"words"`
}

// Total returns the number of element nodes.
func (s Stats) Total() int {
	n := 0
	for _, c := range s.Elements {
		n += c
	}
	return n
}

// FromHTML parses doc leniently and collects Stats.
func FromHTML(doc string) Stats {
	st := Stats{Elements: map[string]int{}}
	node, err := html.Parse(strings.NewReader(doc))
	if err != nil || node == nil {
		return st
	}
	q := goquery.NewDocumentFromNode(node)
	st.Title = strings.TrimSpace(q.Find("head title").First().Text())
	q.Find("script").Each(func(_ int, s *goquery.Selection) {
		if src, _ := s.Attr("src"); src != "" {
			st.Scripts++
		} else {
			st.InlineScripts++
		}
	})
	st.Stylesheets = q.Find("link").FilterFunction(func(_ int, s *goquery.Selection) bool {
		rel, _ := s.Attr("rel")
		return strings.EqualFold(strings.TrimSpace(rel), "stylesheet")
	}).Length()
	st.StyleBlocks = q.Find("style").Length()
	st.Images = q.Find("img").Length()

	var b strings.Builder
	walk(node, &st, &b)
	st.Text = normalizeWhitespace(b.String())
	st.TextChars = len([]rune(st.Text))
	st.Words = len(strings.Fields(st.Text))
	return st
}

// walk counts elements and event handlers and collects the visible text.
func walk(n *html.Node, st *Stats, b *strings.Builder) {
	switch n.Type {
	case html.ElementNode:
		name := strings.ToLower(n.Data)
		st.Elements[name]++
		for _, a := range n.Attr {
			if strings.HasPrefix(strings.ToLower(a.Key), "on") {
				st.Handlers++
			}
		}
		switch name {
		case "script", "style", "noscript", "iframe", "textarea":
			return
		case "br", "p", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6", "tr":
			b.WriteString("\n")
		}
	case html.TextNode:
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, st, b)
	}
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.Join(strings.Fields(line), " ")
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n")
}

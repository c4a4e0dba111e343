// Package markdown turns assistant messages into a small typed tree.
//
// Only bold, italic, lists and line breaks survive parsing. Everything
// else (links, headings, code, raw HTML) is flattened to plain text, so
// the tree can be rendered through html/template without any raw markup
// reaching the page.
package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Kind identifies a node type in the parsed tree.
type Kind string

const (
	KindText     Kind = "text"
	KindStrong   Kind = "strong"
	KindEmphasis Kind = "em"
	KindList     Kind = "list"
	KindListItem Kind = "item"
	KindBreak    Kind = "br"
)

// Node is one element of the parsed tree. Text is set only for KindText;
// Ordered only for KindList.
type Node struct {
	Kind     Kind
	Text     string
	Ordered  bool
	Children []*Node
}

var md = goldmark.New()

// Parse converts src into a flat sequence of top-level nodes. Blocks are
// separated by breaks.
func Parse(src string) []*Node {
	source := []byte(src)
	doc := md.Parser().Parse(text.NewReader(source))

	b := &builder{source: source}
	var out []*Node
	for child := doc.FirstChild(); child != nil; child = child.NextSibling() {
		nodes := b.block(child)
		if len(nodes) == 0 {
			continue
		}
		if len(out) > 0 {
			out = append(out, &Node{Kind: KindBreak})
		}
		out = append(out, nodes...)
	}
	return out
}

type builder struct {
	source []byte
}

// block converts a block-level goldmark node.
func (b *builder) block(n ast.Node) []*Node {
	switch n := n.(type) {
	case *ast.Paragraph, *ast.TextBlock, *ast.Heading:
		return b.inlines(n)
	case *ast.List:
		list := &Node{Kind: KindList, Ordered: n.IsOrdered()}
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			li := &Node{Kind: KindListItem}
			for c := item.FirstChild(); c != nil; c = c.NextSibling() {
				nodes := b.block(c)
				if len(nodes) == 0 {
					continue
				}
				if len(li.Children) > 0 {
					li.Children = append(li.Children, &Node{Kind: KindBreak})
				}
				li.Children = append(li.Children, nodes...)
			}
			list.Children = append(list.Children, li)
		}
		return []*Node{list}
	case *ast.ThematicBreak:
		return nil
	default:
		if n.Type() == ast.TypeBlock && n.HasChildren() {
			// Blockquotes and similar containers keep their content only.
			var out []*Node
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				nodes := b.block(c)
				if len(nodes) == 0 {
					continue
				}
				if len(out) > 0 {
					out = append(out, &Node{Kind: KindBreak})
				}
				out = append(out, nodes...)
			}
			return out
		}
		return b.lines(n)
	}
}

// lines flattens a leaf block (code, raw HTML) to text with breaks.
func (b *builder) lines(n ast.Node) []*Node {
	var raw []string
	segs := n.Lines()
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		raw = append(raw, string(seg.Value(b.source)))
	}
	if hb, ok := n.(*ast.HTMLBlock); ok && hb.HasClosure() {
		raw = append(raw, string(hb.ClosureLine.Value(b.source)))
	}

	var out []*Node
	for i, line := range raw {
		if i > 0 {
			out = append(out, &Node{Kind: KindBreak})
		}
		out = appendText(out, strings.TrimRight(line, "\r\n"))
	}
	return out
}

// inlines converts the inline children of n.
func (b *builder) inlines(n ast.Node) []*Node {
	var out []*Node
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		out = b.inline(out, c)
	}
	return out
}

func (b *builder) inline(out []*Node, n ast.Node) []*Node {
	switch n := n.(type) {
	case *ast.Text:
		out = appendText(out, string(n.Segment.Value(b.source)))
		if n.SoftLineBreak() || n.HardLineBreak() {
			out = append(out, &Node{Kind: KindBreak})
		}
		return out
	case *ast.String:
		return appendText(out, string(n.Value))
	case *ast.Emphasis:
		kind := KindEmphasis
		if n.Level >= 2 {
			kind = KindStrong
		}
		return append(out, &Node{Kind: kind, Children: b.inlines(n)})
	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			out = appendText(out, string(seg.Value(b.source)))
		}
		return out
	case *ast.AutoLink:
		return appendText(out, string(n.URL(b.source)))
	default:
		// Links, code spans and images keep their visible text.
		if n.HasChildren() {
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				out = b.inline(out, c)
			}
			return out
		}
		return out
	}
}

// appendText adds s, merging with a preceding text node.
func appendText(out []*Node, s string) []*Node {
	if s == "" {
		return out
	}
	if len(out) > 0 && out[len(out)-1].Kind == KindText {
		out[len(out)-1].Text += s
		return out
	}
	return append(out, &Node{Kind: KindText, Text: s})
}

// PlainText returns the text content of nodes without any formatting.
func PlainText(nodes []*Node) string {
	var sb strings.Builder
	var walk func([]*Node)
	walk = func(ns []*Node) {
		for _, n := range ns {
			switch n.Kind {
			case KindText:
				sb.WriteString(n.Text)
			case KindBreak:
				sb.WriteByte('\n')
			case KindListItem:
				if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
					sb.WriteByte('\n')
				}
				sb.WriteString("- ")
				walk(n.Children)
			default:
				walk(n.Children)
			}
		}
	}
	walk(nodes)
	return sb.String()
}

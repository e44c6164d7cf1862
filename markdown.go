package codeshot

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// CodeBlock is one code block of a Markdown document.
type CodeBlock struct {
	Language string // first word of the fence info string, empty if none
	Code     string
}

// CodeBlocks returns the fenced and indented code blocks of md in document
// order, including blocks nested in lists and quotes.
func CodeBlocks(md []byte) []CodeBlock {
	doc := goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser().Parse(text.NewReader(md))
	var blocks []CodeBlock
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch nd := n.(type) {
		case *ast.FencedCodeBlock:
			blocks = append(blocks, CodeBlock{
				Language: string(nd.Language(md)),
				Code:     blockText(nd, md),
			})
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock:
			blocks = append(blocks, CodeBlock{Code: blockText(nd, md)})
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return blocks
}

func blockText(n ast.Node, md []byte) string {
	var b bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(md))
	}
	return b.String()
}

// CodeBlockAt returns the n-th code block of md, counting from 1.
func CodeBlockAt(md []byte, n int) (CodeBlock, error) {
	blocks := CodeBlocks(md)
	if n < 1 || n > len(blocks) {
		return CodeBlock{}, fmt.Errorf("codeshot: block %d of %d: %w", n, len(blocks), ErrNoCodeBlock)
	}
	return blocks[n-1], nil
}

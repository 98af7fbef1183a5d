package main

import (
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

const defaultWrap = 100

type renderer struct {
	tr *glamour.TermRenderer
}

// newRenderer 创建 markdown 渲染器；plain 或创建失败时原样输出
func newRenderer(plain bool) *renderer {
	if plain {
		return &renderer{}
	}

	wrap := defaultWrap
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 8 {
		wrap = w - 4
	}

	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return &renderer{}
	}
	return &renderer{tr: tr}
}

func (r *renderer) render(text string) string {
	if r.tr == nil {
		return ensureNewline(text)
	}
	out, err := r.tr.Render(text)
	if err != nil {
		return ensureNewline(text)
	}
	return out
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

package panels

import (
	"fmt"
	"math"
	"strings"
	"time"

	"wrapped/internal/scene"
)

const (
	cardWidth     = 400.0
	cardMinHeight = 711.0
	cardPadding   = 28.0
	cardRadius    = 24.0
	itemGap       = 10.0
	staggerStep   = 100 * time.Millisecond
	entryDuration = 500 * time.Millisecond
	entryOffset   = 24.0
)

var (
	fontRegular = scene.FontRef{Family: "go"}
	fontBold    = scene.FontRef{Family: "go", Bold: true}
)

func sized(ref scene.FontRef, size float64) scene.FontRef {
	ref.Size = size
	return ref
}

// column stacks nodes top to bottom inside a card.
type column struct {
	env  Env
	root *scene.Node
	y    float64
	seq  int
}

func newCard(env Env, id string, fill scene.Fill) *column {
	root := scene.Box(id, 0, 0, cardWidth, cardMinHeight, fill)
	root.Radius = cardRadius
	return &column{env: env, root: root, y: cardPadding}
}

func (c *column) innerWidth() float64 { return cardWidth - 2*cardPadding }

func (c *column) nextID(prefix string) string {
	c.seq++
	return fmt.Sprintf("%s-%d", prefix, c.seq)
}

// text adds a single line of text spanning the column.
func (c *column) text(s string, ref scene.FontRef, color string, align scene.Align) *scene.Node {
	node := textNode(c.env, c.nextID("text"), s, ref, color, align, c.innerWidth())
	node.X = cardPadding
	node.Y = c.y
	c.root.Add(node)
	c.y += node.Height + itemGap
	return node
}

func (c *column) gap(h float64) { c.y += h }

// block adds a pre-built child at the cursor and advances past it.
func (c *column) block(node *scene.Node) *scene.Node {
	node.X = cardPadding
	node.Y = c.y
	c.root.Add(node)
	c.y += node.Height + itemGap
	return node
}

// header renders the period label, title and subject handle.
func (c *column) header(title string) {
	c.text(c.env.Period, sized(fontBold, 18), "#ffffffcc", scene.AlignCenter)
	c.text(title, sized(fontBold, 30), "#ffffff", scene.AlignCenter)
	if c.env.Subject != "" {
		c.text("@"+c.env.Subject, sized(fontRegular, 16), "#ffffffb3", scene.AlignCenter)
	}
	c.gap(12)
}

// finish adds the footer and grows the card to fit its content.
func (c *column) finish() *scene.Node {
	footerRef := sized(fontRegular, 14)
	footer := textNode(c.env, c.nextID("footer"), c.env.Period+" BG Wrapped", footerRef, "#ffffff99", scene.AlignCenter, c.innerWidth())
	height := math.Max(cardMinHeight, c.y+footer.Height+cardPadding)
	footer.X = cardPadding
	footer.Y = height - cardPadding - footer.Height
	c.root.Add(footer)
	c.root.Height = height
	return c.root
}

// animate gives node a staggered entry transition.
func (c *column) animate(node *scene.Node, order int) {
	node.Anim = scene.NewAnimation(entryDuration, time.Duration(order)*staggerStep, 0, entryOffset)
}

func textNode(env Env, id, s string, ref scene.FontRef, color string, align scene.Align, maxWidth float64) *scene.Node {
	s = truncate(env, s, ref, maxWidth)
	_, h := measure(env, ref, s)
	return &scene.Node{
		ID:     id,
		Kind:   scene.KindText,
		Width:  maxWidth,
		Height: h,
		Text:   s,
		Font:   ref,
		Color:  color,
		Align:  align,
	}
}

func measure(env Env, ref scene.FontRef, s string) (float64, float64) {
	if env.Text == nil {
		// Rough metrics keep layout deterministic without a font book.
		return float64(len([]rune(s))) * ref.Size * 0.55, ref.Size * 1.2
	}
	w, h := env.Text.Measure(ref, s)
	if h <= 0 {
		h = ref.Size * 1.2
	}
	return w, h
}

// truncate shortens s with an ellipsis until it fits maxWidth.
func truncate(env Env, s string, ref scene.FontRef, maxWidth float64) string {
	s = strings.TrimSpace(s)
	if w, _ := measure(env, ref, s); w <= maxWidth {
		return s
	}
	runes := []rune(s)
	for len(runes) > 1 {
		runes = runes[:len(runes)-1]
		candidate := strings.TrimSpace(string(runes)) + "…"
		if w, _ := measure(env, ref, candidate); w <= maxWidth {
			return candidate
		}
	}
	return string(runes)
}

package browser

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html"
	"image/png"
	"strings"
	"time"

	"wrapped/internal/scene"
)

// RenderHTML lays root out as absolutely positioned elements. Animations are
// sampled at now, so a frozen tree renders its end state.
func RenderHTML(root *scene.Node, now time.Time) (string, error) {
	if root == nil {
		return "", fmt.Errorf("nil root")
	}
	w, h := scene.Measure(root)
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="utf-8"><style>`)
	b.WriteString(`html,body{margin:0;padding:0;background:transparent;}`)
	b.WriteString(`.n{position:absolute;box-sizing:border-box;overflow:hidden;}`)
	b.WriteString(`.t{white-space:nowrap;line-height:1.2;}`)
	b.WriteString(`</style></head><body>`)
	fmt.Fprintf(&b, `<div id="%s" style="position:relative;width:%dpx;height:%dpx;">`, strings.TrimPrefix(rootSelector, "#"), w, h)
	if err := writeNode(&b, root, now); err != nil {
		return "", err
	}
	b.WriteString(`</div></body></html>`)
	return b.String(), nil
}

func writeNode(b *strings.Builder, n *scene.Node, now time.Time) error {
	y := n.Y
	opacity := 1.0
	if n.Anim != nil {
		y += n.Anim.Offset(now)
		opacity = n.Anim.Opacity(now)
	}
	style := fmt.Sprintf("left:%.2fpx;top:%.2fpx;width:%.2fpx;height:%.2fpx;opacity:%.3f;", n.X, y, n.Width, n.Height, opacity)
	if n.Radius > 0 {
		style += fmt.Sprintf("border-radius:%.2fpx;", n.Radius)
	}

	switch n.Kind {
	case scene.KindBox:
		style += background(n.Fill)
		fmt.Fprintf(b, `<div class="n" data-id="%s" style="%s">`, html.EscapeString(n.ID), style)
	case scene.KindText:
		style += textStyle(n)
		fmt.Fprintf(b, `<div class="n t" data-id="%s" style="%s">%s`, html.EscapeString(n.ID), style, html.EscapeString(n.Text))
	case scene.KindImage:
		src, err := imageSource(n)
		if err != nil {
			return err
		}
		if src != "" {
			fmt.Fprintf(b, `<div class="n" data-id="%s" style="%s"><img src="%s" style="width:100%%;height:100%%;object-fit:cover;display:block;">`, html.EscapeString(n.ID), style, src)
		} else {
			fmt.Fprintf(b, `<div class="n" data-id="%s" style="%s%s">%s`, html.EscapeString(n.ID), style, fallbackStyle(n), html.EscapeString(fallbackLabel(n)))
		}
	}
	for _, child := range n.Children {
		if err := writeNode(b, child, now); err != nil {
			return err
		}
	}
	b.WriteString(`</div>`)
	return nil
}

func background(f scene.Fill) string {
	switch {
	case f.Empty():
		return ""
	case f.Solid():
		return "background:" + f.From + ";"
	default:
		return fmt.Sprintf("background:linear-gradient(135deg,%s 0%%,%s 100%%);", f.From, f.To)
	}
}

func textStyle(n *scene.Node) string {
	color := n.Color
	if color == "" {
		color = "#ffffff"
	}
	weight := 400
	if n.Font.Bold {
		weight = 700
	}
	align := "left"
	switch n.Align {
	case scene.AlignCenter:
		align = "center"
	case scene.AlignRight:
		align = "right"
	}
	family := n.Font.Family
	if family == "" {
		family = "sans-serif"
	} else {
		family = fmt.Sprintf("%q,sans-serif", family)
	}
	return fmt.Sprintf("font-family:%s;font-weight:%d;font-size:%.2fpx;color:%s;text-align:%s;", html.EscapeString(family), weight, n.Font.Size, color, align)
}

func fallbackStyle(n *scene.Node) string {
	color := "#667eea"
	if n.Image != nil && n.Image.FallbackColor != "" {
		color = n.Image.FallbackColor
	}
	size := n.Height * 0.3
	if size < 8 {
		size = 8
	}
	return fmt.Sprintf("background:%s;color:#ffffff;font-family:sans-serif;font-weight:700;font-size:%.2fpx;display:flex;align-items:center;justify-content:center;", color, size)
}

func fallbackLabel(n *scene.Node) string {
	if n.Image == nil {
		return ""
	}
	return n.Image.FallbackLabel
}

// imageSource inlines loaded images as data URIs so the page never touches
// the network. Unloaded images return "" and render their fallback.
func imageSource(n *scene.Node) (string, error) {
	if n.Image == nil {
		return "", nil
	}
	img, ok := n.Image.Image()
	if !ok {
		return "", nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("inline image %s: %w", n.ID, err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

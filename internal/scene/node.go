package scene

import (
	"math"
)

// Kind identifies how a node paints itself.
type Kind int

const (
	KindBox Kind = iota
	KindText
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindBox:
		return "box"
	case KindText:
		return "text"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// Align is the horizontal alignment of text inside its layout box.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Fill is a solid color or a diagonal two-stop gradient. Colors are hex
// strings ("#667eea"); an empty From means no background.
type Fill struct {
	From string
	To   string
}

// Solid reports whether the fill has a single color.
func (f Fill) Solid() bool { return f.To == "" || f.To == f.From }

// Empty reports whether the fill paints nothing.
func (f Fill) Empty() bool { return f.From == "" }

// FontRef names a face by family and weight. Size is in CSS pixels.
type FontRef struct {
	Family string
	Bold   bool
	Size   float64
}

// Node is one element of a panel's render tree. Coordinates are relative to
// the parent's origin and measured in CSS pixels at scale 1.
type Node struct {
	ID       string
	Kind     Kind
	X, Y     float64
	Width    float64
	Height   float64
	Fill     Fill
	Radius   float64
	Text     string
	Font     FontRef
	Color    string
	Align    Align
	Image    *ImageSource
	Anim     *Animation
	Children []*Node
}

// Box creates a container node.
func Box(id string, x, y, w, h float64, fill Fill, children ...*Node) *Node {
	return &Node{ID: id, Kind: KindBox, X: x, Y: y, Width: w, Height: h, Fill: fill, Children: children}
}

// Add appends children and returns the node for chaining.
func (n *Node) Add(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		Walk(child, fn)
	}
}

// Find returns the first node with the given id.
func Find(root *Node, id string) *Node {
	var found *Node
	Walk(root, func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Images collects every image source reachable from root.
func Images(root *Node) []*ImageSource {
	var out []*ImageSource
	Walk(root, func(n *Node) bool {
		if n.Kind == KindImage && n.Image != nil {
			out = append(out, n.Image)
		}
		return true
	})
	return out
}

// Fonts collects the distinct faces text nodes under root need, ignoring size.
func Fonts(root *Node) []FontRef {
	seen := map[FontRef]struct{}{}
	var out []FontRef
	Walk(root, func(n *Node) bool {
		if n.Kind != KindText {
			return true
		}
		ref := FontRef{Family: n.Font.Family, Bold: n.Font.Bold}
		if _, ok := seen[ref]; !ok {
			seen[ref] = struct{}{}
			out = append(out, ref)
		}
		return true
	})
	return out
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Union grows r to include o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		MinX: math.Min(r.MinX, o.MinX),
		MinY: math.Min(r.MinY, o.MinY),
		MaxX: math.Max(r.MaxX, o.MaxX),
		MaxY: math.Max(r.MaxY, o.MaxY),
	}
}

// BoundingBox returns the extent of root and all descendants in root's
// coordinate space. Animation offsets are ignored.
func BoundingBox(root *Node) Rect {
	if root == nil {
		return Rect{}
	}
	box := Rect{MaxX: root.Width, MaxY: root.Height}
	for _, child := range root.Children {
		childBox := BoundingBox(child)
		childBox.MinX += child.X
		childBox.MaxX += child.X
		childBox.MinY += child.Y
		childBox.MaxY += child.Y
		box = box.Union(childBox)
	}
	return box
}

// Measure returns the natural pixel size of root: per axis the larger of the
// layout box and the content bounding box, never less than 1.
func Measure(root *Node) (int, int) {
	if root == nil {
		return 1, 1
	}
	bounds := BoundingBox(root)
	w := math.Max(root.Width, bounds.MaxX)
	h := math.Max(root.Height, bounds.MaxY)
	return atLeastOne(w), atLeastOne(h)
}

func atLeastOne(v float64) int {
	if math.IsNaN(v) || v < 1 {
		return 1
	}
	return int(math.Ceil(v))
}

package scene_test

import (
	"errors"
	"image"
	"testing"
	"time"

	"wrapped/internal/scene"
)

func TestMeasureUsesLargerOfLayoutAndContent(t *testing.T) {
	tests := []struct {
		name  string
		root  *scene.Node
		wantW int
		wantH int
	}{
		{
			name:  "layout box only",
			root:  scene.Box("card", 0, 0, 400, 711, scene.Fill{}),
			wantW: 400,
			wantH: 711,
		},
		{
			name: "content overflows",
			root: scene.Box("card", 0, 0, 400, 300, scene.Fill{},
				scene.Box("tall", 10, 250, 100, 500, scene.Fill{}),
			),
			wantW: 400,
			wantH: 750,
		},
		{
			name:  "zero sized fallback",
			root:  scene.Box("empty", 0, 0, 0, 0, scene.Fill{}),
			wantW: 1,
			wantH: 1,
		},
		{
			name:  "nil root",
			root:  nil,
			wantW: 1,
			wantH: 1,
		},
		{
			name:  "fractional sizes round up",
			root:  scene.Box("frac", 0, 0, 399.2, 710.01, scene.Fill{}),
			wantW: 400,
			wantH: 711,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := scene.Measure(tt.root)
			if w != tt.wantW || h != tt.wantH {
				t.Fatalf("Measure() = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestImagesAndFontsCollectDescendants(t *testing.T) {
	img := scene.NewImageSource("https://example.test/a.png", "BGG", "#667eea")
	root := scene.Box("card", 0, 0, 400, 700, scene.Fill{From: "#000"},
		&scene.Node{ID: "title", Kind: scene.KindText, Text: "Hi", Font: scene.FontRef{Family: "go", Bold: true, Size: 32}},
		scene.Box("row", 0, 100, 400, 80, scene.Fill{},
			&scene.Node{ID: "thumb", Kind: scene.KindImage, Width: 70, Height: 70, Image: img},
			&scene.Node{ID: "name", Kind: scene.KindText, Text: "Azul", Font: scene.FontRef{Family: "go", Size: 16}},
			&scene.Node{ID: "count", Kind: scene.KindText, Text: "5", Font: scene.FontRef{Family: "go", Bold: true, Size: 12}},
		),
	)

	images := scene.Images(root)
	if len(images) != 1 || images[0] != img {
		t.Fatalf("unexpected images %v", images)
	}
	fonts := scene.Fonts(root)
	if len(fonts) != 2 {
		t.Fatalf("expected regular and bold faces, got %v", fonts)
	}
	if scene.Find(root, "count") == nil {
		t.Fatal("expected to find nested node")
	}
}

func TestImageSourceResolvesOnce(t *testing.T) {
	src := scene.NewImageSource("https://example.test/a.png", "BGG", "")
	if src.State() != scene.ImagePending {
		t.Fatalf("expected pending, got %s", src.State())
	}
	if !src.Resolve(nil, errors.New("404")) {
		t.Fatal("expected first resolve to win")
	}
	if src.Resolve(image.NewRGBA(image.Rect(0, 0, 1, 1)), nil) {
		t.Fatal("expected second resolve to be ignored")
	}
	if src.State() != scene.ImageErrored {
		t.Fatalf("expected errored, got %s", src.State())
	}
	select {
	case <-src.Done():
	default:
		t.Fatal("expected done channel closed")
	}
}

func TestImageSourceWithoutURLFallsBackImmediately(t *testing.T) {
	src := scene.NewImageSource("", "BGG", "")
	if src.State() != scene.ImageErrored || !errors.Is(src.Err(), scene.ErrNoSource) {
		t.Fatalf("expected immediate fallback, got %s %v", src.State(), src.Err())
	}
}

func TestAnimationProgress(t *testing.T) {
	start := time.Unix(1000, 0)
	anim := scene.NewAnimation(400*time.Millisecond, 100*time.Millisecond, 0, 20)
	if got := anim.Progress(start); got != 0 {
		t.Fatalf("expected unmounted animation at 0, got %v", got)
	}
	anim.Start(start)
	if got := anim.Progress(start.Add(50 * time.Millisecond)); got != 0 {
		t.Fatalf("expected 0 during delay, got %v", got)
	}
	if got := anim.Progress(start.Add(time.Second)); got != 1 {
		t.Fatalf("expected complete after duration, got %v", got)
	}
	mid := anim.Opacity(start.Add(300 * time.Millisecond))
	if mid <= 0 || mid >= 1 {
		t.Fatalf("expected partial opacity mid-animation, got %v", mid)
	}

	anim.SetTiming(scene.Timing{})
	if got := anim.Offset(start); got != 0 {
		t.Fatalf("expected zero-duration animation at rest, got offset %v", got)
	}
}

package fonts

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"wrapped/internal/logging"
	"wrapped/internal/scene"
)

// DefaultFamily is the embedded Go font family.
const DefaultFamily = "go"

type sourceKey struct {
	family string
	bold   bool
}

type faceKey struct {
	source sourceKey
	size   float64
}

// Book resolves font references to faces. The Go family is embedded; other
// families load from <dir>/<family>.ttf and <dir>/<family>-Bold.ttf.
type Book struct {
	dir    string
	logger *slog.Logger

	mu      sync.Mutex
	sources map[sourceKey]*text.FontSource
	faces   map[faceKey]text.Face
	failed  map[sourceKey]error
}

// NewBook creates a font book rooted at dir, which may be empty.
func NewBook(dir string, logger *slog.Logger) *Book {
	return &Book{
		dir:     strings.TrimSpace(dir),
		logger:  logging.NewComponentLogger(logger, "fonts"),
		sources: make(map[sourceKey]*text.FontSource),
		faces:   make(map[faceKey]text.Face),
		failed:  make(map[sourceKey]error),
	}
}

// Load makes the face for ref available. A family that cannot be loaded
// falls back to the embedded Go font; the returned error reports the miss.
func (b *Book) Load(ref scene.FontRef) error {
	_, err := b.source(ref)
	return err
}

// Face returns a face for ref at size pixels.
func (b *Book) Face(ref scene.FontRef, size float64) text.Face {
	src, _ := b.source(ref)
	key := faceKey{source: keyFor(ref), size: size}

	b.mu.Lock()
	defer b.mu.Unlock()
	if face, ok := b.faces[key]; ok {
		return face
	}
	face := src.Face(size)
	b.faces[key] = face
	return face
}

// Measure returns the advance width and line height of s set in ref.
func (b *Book) Measure(ref scene.FontRef, s string) (float64, float64) {
	return text.Measure(s, b.Face(ref, ref.Size))
}

// Ascent returns the distance from the top of a line to its baseline.
func (b *Book) Ascent(ref scene.FontRef, size float64) float64 {
	return b.Face(ref, size).Metrics().Ascent
}

func keyFor(ref scene.FontRef) sourceKey {
	family := strings.ToLower(strings.TrimSpace(ref.Family))
	if family == "" {
		family = DefaultFamily
	}
	return sourceKey{family: family, bold: ref.Bold}
}

func (b *Book) source(ref scene.FontRef) (*text.FontSource, error) {
	key := keyFor(ref)

	b.mu.Lock()
	defer b.mu.Unlock()
	if src, ok := b.sources[key]; ok {
		return src, b.failed[key]
	}

	src, err := b.open(key)
	if err != nil {
		fallback, fbErr := embedded(key.bold)
		if fbErr != nil {
			return nil, fbErr
		}
		logging.WarnWithContext(b.logger, "font family unavailable; using embedded face", "font_fallback",
			logging.String("family", key.family),
			logging.Bool("bold", key.bold),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "place the .ttf in paths.fonts_dir"),
			logging.String(logging.FieldImpact, "text renders in the default face"),
		)
		b.sources[key] = fallback
		b.failed[key] = err
		return fallback, err
	}
	b.sources[key] = src
	return src, nil
}

func (b *Book) open(key sourceKey) (*text.FontSource, error) {
	if key.family == DefaultFamily {
		return embedded(key.bold)
	}
	if b.dir == "" {
		return nil, fmt.Errorf("font %q: no fonts directory configured", key.family)
	}
	name := key.family
	if key.bold {
		name += "-bold"
	}
	var lastErr error
	for _, candidate := range candidates(b.dir, name) {
		data, err := os.ReadFile(candidate)
		if err != nil {
			lastErr = err
			continue
		}
		src, err := text.NewFontSource(data)
		if err != nil {
			return nil, fmt.Errorf("font %q: parse %s: %w", key.family, candidate, err)
		}
		return src, nil
	}
	return nil, fmt.Errorf("font %q: %w", key.family, lastErr)
}

func candidates(dir, name string) []string {
	out := make([]string, 0, 4)
	for _, ext := range []string{".ttf", ".otf"} {
		out = append(out, filepath.Join(dir, name+ext))
	}
	// Bold faces are commonly shipped as Family-Bold.ttf.
	if strings.HasSuffix(name, "-bold") {
		base := strings.TrimSuffix(name, "-bold")
		for _, ext := range []string{".ttf", ".otf"} {
			out = append(out, filepath.Join(dir, base+"-Bold"+ext))
		}
	}
	return out
}

func embedded(bold bool) (*text.FontSource, error) {
	if bold {
		return text.NewFontSource(gobold.TTF)
	}
	return text.NewFontSource(goregular.TTF)
}

package fonts

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Built-in families
var (
	Go     = "Go"
	GoMono = "Go Mono"
)

// Style selects a variant within a family
type Style struct {
	Bold   bool
	Italic bool
}

type faceKey struct {
	family string
	size   float64
	style  Style
}

// Registry maps family names to parsed font variants and caches sized faces
type Registry struct {
	mu       sync.Mutex
	families map[string]map[Style]*opentype.Font
	faces    map[faceKey]font.Face
	fallback string
}

// NewRegistry creates a registry preloaded with the Go font families
func NewRegistry() (*Registry, error) {
	r := &Registry{
		families: make(map[string]map[Style]*opentype.Font),
		faces:    make(map[faceKey]font.Face),
		fallback: Go,
	}

	builtins := []struct {
		family string
		style  Style
		ttf    []byte
	}{
		{Go, Style{}, goregular.TTF},
		{Go, Style{Bold: true}, gobold.TTF},
		{Go, Style{Italic: true}, goitalic.TTF},
		{Go, Style{Bold: true, Italic: true}, gobolditalic.TTF},
		{GoMono, Style{}, gomono.TTF},
		{GoMono, Style{Bold: true}, gomonobold.TTF},
		{GoMono, Style{Italic: true}, gomonoitalic.TTF},
		{GoMono, Style{Bold: true, Italic: true}, gomonobolditalic.TTF},
	}
	for _, b := range builtins {
		if err := r.Register(b.family, b.style, b.ttf); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register parses a TrueType/OpenType font and adds it under family/style
func (r *Registry) Register(family string, style Style, ttf []byte) error {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return fmt.Errorf("parse font %q: %w", family, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.families[family] == nil {
		r.families[family] = make(map[Style]*opentype.Font)
	}
	r.families[family][style] = f
	for k := range r.faces {
		if k.family == family {
			delete(r.faces, k)
		}
	}
	return nil
}

// Face returns a face for family at size pixels. Unknown families fall back
// to Go, missing styles fall back to the family's regular variant.
func (r *Registry) Face(family string, size float64, style Style) (font.Face, error) {
	if size <= 0 || math.IsNaN(size) || math.IsInf(size, 0) {
		return nil, fmt.Errorf("invalid font size %v", size)
	}
	size = math.Round(size*4) / 4

	r.mu.Lock()
	defer r.mu.Unlock()

	variants, ok := r.families[family]
	if !ok {
		family = r.fallback
		variants = r.families[family]
	}
	f, ok := variants[style]
	if !ok {
		style = Style{}
		f, ok = variants[style]
		if !ok {
			return nil, fmt.Errorf("font family %q has no regular variant", family)
		}
	}

	key := faceKey{family: family, size: size, style: style}
	if face, ok := r.faces[key]; ok {
		return face, nil
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create face %q@%v: %w", family, size, err)
	}
	r.faces[key] = face
	return face, nil
}

// List returns all registered family names
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.families))
	for name := range r.families {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

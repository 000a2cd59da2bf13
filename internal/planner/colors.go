package planner

import (
	"slices"
	"strings"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
)

// NeutralColor is returned for blank commodity names.
const NeutralColor = "#9E9E9E"

const (
	darkText  = "#000000"
	lightText = "#FFFFFF"
)

// ColorPalette holds the hand-picked colors for known commodities (keyed by
// normalized name) and the cyclical fallback list for everything else.
type ColorPalette struct {
	Curated  map[string]string `yaml:"curated"`
	Fallback []string          `yaml:"fallback"`
}

func DefaultPalette() ColorPalette {
	return ColorPalette{
		Curated: map[string]string{
			"GALA":          "#E53935",
			"HONEYCRISP":    "#FB8C00",
			"FUJI":          "#D81B60",
			"GRANNY SMITH":  "#7CB342",
			"PINK LADY":     "#F06292",
			"CHERRIES":      "#8E24AA",
			"PEARS":         "#C0CA33",
			"BLUEBERRIES":   "#3949AB",
			"BARTLETT":      "#FDD835",
			"RED DELICIOUS": "#B71C1C",
		},
		Fallback: []string{
			"#1E88E5", "#00897B", "#6D4C41", "#5E35B1",
			"#43A047", "#F4511E", "#039BE5", "#546E7A",
			"#C2185B", "#00ACC1", "#7E57C2", "#FFB300",
		},
	}
}

// ColorRegistry assigns each commodity a stable display color. Assignments
// only grow until Initialize or Reset is called.
type ColorRegistry struct {
	mu       sync.Mutex
	palette  ColorPalette
	assigned map[string]string
	cursor   int
}

func NewColorRegistry(palette ColorPalette) *ColorRegistry {
	curated := make(map[string]string, len(palette.Curated))
	for name, color := range palette.Curated {
		if key := normalizeCommodityName(name); key != "" {
			curated[key] = color
		}
	}
	palette.Curated = curated
	if len(palette.Fallback) == 0 {
		palette.Fallback = DefaultPalette().Fallback
	}

	return &ColorRegistry{
		palette:  palette,
		assigned: make(map[string]string),
	}
}

func (registry *ColorRegistry) ColorFor(commodityName string) string {
	key := normalizeCommodityName(commodityName)
	if key == "" {
		return NeutralColor
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()
	return registry.assignLocked(key)
}

// Initialize clears the registry and assigns colors to names in sorted order,
// so the same set of names always produces the same assignment.
func (registry *ColorRegistry) Initialize(names []string) {
	keys := make([]string, 0, len(names))
	for _, name := range names {
		if key := normalizeCommodityName(name); key != "" {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	keys = slices.Compact(keys)

	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.resetLocked()
	for _, key := range keys {
		registry.assignLocked(key)
	}
}

func (registry *ColorRegistry) Reset() {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.resetLocked()
}

func (registry *ColorRegistry) Len() int {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return len(registry.assigned)
}

func (registry *ColorRegistry) Snapshot() map[string]string {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	snapshot := make(map[string]string, len(registry.assigned))
	for name, color := range registry.assigned {
		snapshot[name] = color
	}
	return snapshot
}

func (registry *ColorRegistry) assignLocked(key string) string {
	if color, ok := registry.assigned[key]; ok {
		return color
	}
	if color, ok := registry.palette.Curated[key]; ok {
		registry.assigned[key] = color
		return color
	}
	color := registry.palette.Fallback[registry.cursor%len(registry.palette.Fallback)]
	registry.cursor++
	registry.assigned[key] = color
	return color
}

func (registry *ColorRegistry) resetLocked() {
	registry.assigned = make(map[string]string)
	registry.cursor = 0
}

// TextColorFor picks black or white text, whichever reads better on the
// given background. Unparseable colors get black.
func TextColorFor(background string) string {
	color, err := colorful.Hex(background)
	if err != nil {
		return darkText
	}
	r, g, b := color.LinearRgb()
	if 0.2126*r+0.7152*g+0.0722*b > 0.179 {
		return darkText
	}
	return lightText
}

func normalizeCommodityName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

package services

import (
	"math/rand/v2"
	"strings"

	"github.com/samber/lo"
)

// Color is one entry of the participant palette.
type Color struct {
	Name string
	Hex  string
}

// palette holds the colors a room hands out to joining participants.
// Ordered so iteration is stable.
var palette = []Color{
	{"Red", "#EF4444"},
	{"Orange", "#F97316"},
	{"Amber", "#F59E0B"},
	{"Green", "#10B981"},
	{"Teal", "#14B8A6"},
	{"Blue", "#3B82F6"},
	{"Indigo", "#6366F1"},
	{"Purple", "#A855F7"},
	{"Pink", "#EC4899"},
	{"Rose", "#F43F5E"},
	{"Cyan", "#06B6D4"},
	{"Lime", "#84CC16"},
}

// AllColors returns the full palette.
func AllColors() []Color {
	return palette
}

// AvailableColors filters the palette down to colors not in use,
// comparing hex codes case-insensitively.
func AvailableColors(used []string) []Color {
	taken := lo.SliceToMap(used, func(hex string) (string, struct{}) {
		return strings.ToLower(hex), struct{}{}
	})
	return lo.Filter(palette, func(c Color, _ int) bool {
		_, ok := taken[strings.ToLower(c.Hex)]
		return !ok
	})
}

// RandomAvailableColor picks a random unused color. When the palette
// is exhausted it falls back to a random color anyway, since capacity
// can exceed the palette size.
func RandomAvailableColor(used []string) Color {
	available := AvailableColors(used)
	if len(available) == 0 {
		return palette[rand.IntN(len(palette))]
	}
	return available[rand.IntN(len(available))]
}

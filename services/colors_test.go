package services

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestAvailableColors_FiltersUsedCaseInsensitively(t *testing.T) {
	req := require.New(t)

	available := AvailableColors([]string{"#ef4444", "#3B82F6"})
	req.Len(available, len(palette)-2)

	hexes := lo.Map(available, func(c Color, _ int) string { return c.Hex })
	req.NotContains(hexes, "#EF4444")
	req.NotContains(hexes, "#3B82F6")
}

func TestRandomAvailableColor_PicksFromRemaining(t *testing.T) {
	req := require.New(t)

	used := lo.Map(palette[:len(palette)-1], func(c Color, _ int) string { return c.Hex })
	color := RandomAvailableColor(used)
	req.Equal(palette[len(palette)-1], color)
}

func TestRandomAvailableColor_ExhaustedPaletteFallsBack(t *testing.T) {
	req := require.New(t)

	used := lo.Map(palette, func(c Color, _ int) string { return c.Hex })
	color := RandomAvailableColor(used)
	req.Contains(palette, color)
}

package types

import (
	"fmt"
	"strings"
)

// Orientation of the poster canvas.
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// ParseOrientation accepts "portrait" or "landscape", case-insensitively.
func ParseOrientation(s string) (Orientation, error) {
	switch o := Orientation(strings.ToLower(strings.TrimSpace(s))); o {
	case Portrait, Landscape:
		return o, nil
	}
	return "", fmt.Errorf("unknown orientation %q (want portrait or landscape)", s)
}

// OrientationOf derives the orientation from canvas dimensions; squares count
// as portrait.
func OrientationOf(width, height float64) Orientation {
	if width > height {
		return Landscape
	}
	return Portrait
}

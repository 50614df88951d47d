// Package classify maps issue tags and due dates to display categories.
//
// Everything here is pure: tag lookups are case-insensitive table lookups
// with a default fallback, and due-date helpers take the reference time
// as an argument so callers control the clock.
package classify

import "strings"

// IconKind names the glyph a renderer paints next to a tag.
type IconKind int

const (
	IconGeneric IconKind = iota
	IconBug
	IconFeature
	IconDocumentation
	IconPerformance
	IconUIUX
)

func (k IconKind) String() string {
	switch k {
	case IconBug:
		return "bug"
	case IconFeature:
		return "feature"
	case IconDocumentation:
		return "documentation"
	case IconPerformance:
		return "performance"
	case IconUIUX:
		return "ui/ux"
	default:
		return "generic"
	}
}

// ColorToken is a palette entry understood by the renderer's style registry.
type ColorToken string

const (
	ColorRed     ColorToken = "red"
	ColorBlue    ColorToken = "blue"
	ColorPurple  ColorToken = "purple"
	ColorOrange  ColorToken = "orange"
	ColorGreen   ColorToken = "green"
	ColorNeutral ColorToken = "gray"
)

type tagClass struct {
	icon  IconKind
	color ColorToken
}

// Keys are lowercase.
var tagTable = map[string]tagClass{
	"bug":           {IconBug, ColorRed},
	"feature":       {IconFeature, ColorBlue},
	"documentation": {IconDocumentation, ColorPurple},
	"performance":   {IconPerformance, ColorOrange},
	"ui/ux":         {IconUIUX, ColorGreen},
}

// TagIcon returns the icon kind for tag, or IconGeneric for unknown tags.
func TagIcon(tag string) IconKind {
	if c, ok := tagTable[strings.ToLower(tag)]; ok {
		return c.icon
	}
	return IconGeneric
}

// TagColor returns the palette token for tag, or ColorNeutral for unknown tags.
func TagColor(tag string) ColorToken {
	if c, ok := tagTable[strings.ToLower(tag)]; ok {
		return c.color
	}
	return ColorNeutral
}

// KnownTag reports whether tag has a dedicated icon and color.
func KnownTag(tag string) bool {
	_, ok := tagTable[strings.ToLower(tag)]
	return ok
}

package assets

import "embed"

// ThemesFS embeds the built-in poster themes.
//
// NOTE: go:embed patterns must not use ".." and must be relative to this file.
//
//go:embed themes/*.json
var ThemesFS embed.FS

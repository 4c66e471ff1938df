package web

import "embed"

// Templates holds layouts, partials and pages.
//
//go:embed templates/**/*.html
var Templates embed.FS

// Static holds the stylesheet and the progressive-enhancement script.
//
//go:embed static/**/*
var Static embed.FS

package web

import "embed"

// templatesFS holds the server-rendered views.
//
//go:embed templates/*.html
var templatesFS embed.FS

// staticFS holds the assets served under /static/.
//
//go:embed static/*
var staticFS embed.FS

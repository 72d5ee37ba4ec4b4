package pubsite

import "embed"

// EmbeddedAssets contains the stylesheet and script every built site ships
// under /public/: site.css and site.js (reading progress, header fade and
// the infinite-scroll feed).
//
//go:embed embedded/*
var EmbeddedAssets embed.FS

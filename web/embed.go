// Package web embeds the operator dashboard assets.
package web

import _ "embed"

//go:embed index.html
var IndexHTML []byte

// Package schemas embeds the JSON Schemas request bodies are validated against.
package schemas

import "embed"

//go:embed *.json
var FS embed.FS

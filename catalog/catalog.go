// Package catalog embeds the default course catalog shipped with the server.
package catalog

import "embed"

// FS holds the *.course.yaml, *.lesson.yaml and *.lessons.yaml files.
//
//go:embed html css
var FS embed.FS

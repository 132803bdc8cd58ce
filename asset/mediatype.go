package asset

import (
	"mime"
	"path/filepath"
	"strings"
)

const defaultMediaType = "application/octet-stream"

// Web asset types are resolved from this table before the system registry,
// so results do not depend on the host's mime.types files.
var extensionTypes = map[string]string{
	".html":        "text/html",
	".htm":         "text/html",
	".xhtml":       "application/xhtml+xml",
	".css":         "text/css",
	".js":          "application/javascript",
	".mjs":         "application/javascript",
	".json":        "application/json",
	".map":         "application/json",
	".webmanifest": "application/manifest+json",
	".xml":         "application/xml",
	".txt":         "text/plain",
	".md":          "text/markdown",
	".csv":         "text/csv",
	".sh":          "application/x-sh",
	".svg":         "image/svg+xml",
	".png":         "image/png",
	".jpg":         "image/jpeg",
	".jpeg":        "image/jpeg",
	".gif":         "image/gif",
	".webp":        "image/webp",
	".ico":         "image/x-icon",
	".woff":        "font/woff",
	".woff2":       "font/woff2",
	".ttf":         "font/ttf",
	".pdf":         "application/pdf",
	".wasm":        "application/wasm",
	".zip":         "application/zip",
}

// Preferred extension per media type, used when a part carries no filename.
var typeExtensions = map[string]string{
	"text/html":                 ".html",
	"application/xhtml+xml":     ".xhtml",
	"text/css":                  ".css",
	"application/javascript":    ".js",
	"text/javascript":           ".js",
	"application/json":          ".json",
	"application/manifest+json": ".webmanifest",
	"application/xml":           ".xml",
	"text/xml":                  ".xml",
	"text/plain":                ".txt",
	"text/markdown":             ".md",
	"text/csv":                  ".csv",
	"text/x-dockerfile":         "",
	"application/x-sh":          ".sh",
	"image/svg+xml":             ".svg",
	"image/png":                 ".png",
	"image/jpeg":                ".jpg",
	"image/gif":                 ".gif",
	"image/webp":                ".webp",
	"image/x-icon":              ".ico",
	"font/woff":                 ".woff",
	"font/woff2":                ".woff2",
	"font/ttf":                  ".ttf",
	"application/pdf":           ".pdf",
	"application/wasm":          ".wasm",
	"application/zip":           ".zip",
	"application/octet-stream":  ".bin",
}

// MediaTypeOf returns the media type for a file name, without parameters.
func MediaTypeOf(name string) string {
	if name == "Dockerfile" || strings.HasPrefix(name, "Dockerfile.") {
		return "text/x-dockerfile"
	}

	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return defaultMediaType
	}
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return BaseType(t)
	}
	return defaultMediaType
}

// ExtensionFor returns the extension, dot included, to give a file of the
// given media type. Unknown types get ".bin".
func ExtensionFor(mediaType string) string {
	base := BaseType(mediaType)
	if ext, ok := typeExtensions[base]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(base); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

// Classify maps a media type onto its family.
func Classify(mediaType string) Kind {
	base := BaseType(mediaType)
	switch {
	case base == "text/html", base == "application/xhtml+xml":
		return Markup
	case strings.HasPrefix(base, "text/"):
		return Text
	case strings.HasSuffix(base, "+json"), strings.HasSuffix(base, "+xml"):
		return Text
	}

	switch base {
	case "application/javascript", "application/x-javascript", "application/ecmascript",
		"application/json", "application/xml", "application/x-sh":
		return Text
	}
	return Binary
}

// BaseType strips parameters from a media type and lower-cases it.
func BaseType(mediaType string) string {
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

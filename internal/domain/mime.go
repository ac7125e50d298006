package domain

import "strings"

// mimeByExtension is the fixed lookup table for supported document types.
var mimeByExtension = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"tif":  "image/tiff",
	"pdf":  "application/pdf",
}

// MIMETypeOf maps a filename to a MIME type by its lowercase extension.
// Unknown or missing extensions map to application/octet-stream.
func MIMETypeOf(filename string) string {
	if mime, ok := mimeByExtension[extensionOf(filename)]; ok {
		return mime
	}
	return "application/octet-stream"
}

// SupportedExtension reports whether the filename's extension is on the
// upload allow-list.
func SupportedExtension(filename string) bool {
	_, ok := mimeByExtension[extensionOf(filename)]
	return ok
}

func extensionOf(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}

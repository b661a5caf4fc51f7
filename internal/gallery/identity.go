package gallery

import (
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// IsReferenceImage reports whether the file name looks like a reference image.
func IsReferenceImage(name string) bool {
	base := path.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return imageExtensions[strings.ToLower(path.Ext(base))]
}

// IdentityFromPath derives the identity of a reference image from its
// slash-separated path relative to the gallery root. Images directly in the
// root are named by their file name, images in a sub-directory by the
// top-level directory name. Underscores become spaces.
func IdentityFromPath(rel string) string {
	rel = strings.TrimPrefix(path.Clean("/"+rel), "/")

	var raw string
	if i := strings.IndexByte(rel, '/'); i >= 0 {
		raw = rel[:i]
	} else {
		raw = strings.TrimSuffix(rel, path.Ext(rel))
	}
	return normalizeIdentity(raw)
}

func normalizeIdentity(raw string) string {
	s := strings.ReplaceAll(raw, "_", " ")
	s = strings.Join(strings.Fields(s), " ")
	return norm.NFC.String(s)
}

// foldIdentities rewrites identities that differ only in case to the first
// spelling in files.
func foldIdentities(files []ImageFile) {
	fold := cases.Fold()
	canonical := make(map[string]string, len(files))
	for i, f := range files {
		key := fold.String(f.Identity)
		if c, ok := canonical[key]; ok {
			files[i].Identity = c
			continue
		}
		canonical[key] = f.Identity
	}
}

// DisplayName is the upper-cased form of an identity shown on the overlay
// and in the activity feed.
func DisplayName(identity string) string {
	return cases.Upper(language.Und).String(identity)
}

package internal

import (
	"regexp"
	"strings"
)

var (
	identifierPattern = regexp.MustCompile(PatternIdentifier)
	localNamePattern  = regexp.MustCompile(PatternLocalName)
)

// IsIdentifier reports whether s can name an engine in a namespace.
// Dotted package-qualified names such as "markdown.Goldmark" are accepted.
func IsIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// IsLocalName reports whether s can be used as a locals key.
func IsLocalName(s string) bool {
	return localNamePattern.MatchString(s)
}

// NormalizeExtension lowercases ext and strips one leading dot.
func NormalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, string(ExtensionSeparator)))
}

// Split finds the longest registered extension suffix of file.
// The full lowercased string is tried first, then the base name with its
// first dotted segment removed, repeatedly. It returns the part of the
// file before that suffix (without the joining dot) and the suffix itself.
//
//	Split("views/index.html.erb", reg) // "views/index.html", "erb" if only erb is registered
//	Split("views/index.html.erb", reg) // "views/index", "html.erb" if html.erb is registered
func Split(file string, registered func(ext string) bool) (prefix, ext string, ok bool) {
	full := strings.ToLower(file)
	pattern := full

	for !registered(pattern) {
		if pattern == "" {
			return "", "", false
		}
		pattern = stripFirstSegment(baseName(pattern))
	}

	prefixSize := len(full) - len(pattern)
	if prefixSize > 0 {
		prefix = full[:prefixSize-1]
	}
	return prefix, pattern, true
}

// baseName returns the text after the last path separator.
func baseName(p string) string {
	if i := strings.LastIndexByte(p, PathSeparator); i >= 0 {
		return p[i+1:]
	}
	return p
}

// stripFirstSegment removes everything up to and including the first dot.
func stripFirstSegment(name string) string {
	if i := strings.IndexByte(name, ExtensionSeparator); i >= 0 {
		return name[i+1:]
	}
	return ""
}

// BaseName returns the final path element of file.
func BaseName(file string) string {
	return baseName(file)
}

// StemName returns the base name up to its first dot.
func StemName(file string) string {
	base := baseName(file)
	if i := strings.IndexByte(base, ExtensionSeparator); i >= 0 {
		return base[:i]
	}
	return base
}

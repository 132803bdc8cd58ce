// Package rewrite moves resource references in markup between local flat
// file names and the cid: form used inside an archive.
//
// References are src= and href= attribute values (quoted or not) and CSS
// url(...) values, including those in inline style blocks and attributes.
// Every function is idempotent: running it again on its own output changes
// nothing.
package rewrite

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

const cidScheme = "cid:"

type pattern struct {
	re     *regexp.Regexp
	groups []int // alternative capture groups holding the reference
}

var patterns = []pattern{
	{
		// The attribute name must start the text or follow whitespace, a
		// slash or a quote, so data-src= and data-href= are not references.
		re:     regexp.MustCompile(`(?i)(?:^|[\s/"'])(?:src|href)\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+))`),
		groups: []int{1, 2, 3},
	},
	{
		re:     regexp.MustCompile(`(?i)\burl\(\s*(?:"([^"]*)"|'([^']*)'|([^\s"')]+))\s*\)`),
		groups: []int{1, 2, 3},
	},
}

var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*:`)

// LocalToCID replaces references to known local files with cid: references.
// cids maps a flat file name to its content identifier. Leading directories
// of a reference are ignored when matching; query and fragment are kept.
func LocalToCID(text string, cids map[string]string) string {
	if len(cids) == 0 {
		return text
	}
	return replaceReferences(text, func(ref string) (string, bool) {
		name, suffix, ok := splitLocal(ref)
		if !ok {
			return "", false
		}
		cid, ok := cids[name]
		if !ok {
			return "", false
		}
		return cidScheme + cid + suffix, true
	})
}

// CIDToLocal replaces cid: references (cid:id or cid:<id>) with the file
// names they resolve to in names. Unresolvable identifiers are left as they
// are, they may point outside the archive.
func CIDToLocal(text string, names map[string]string) string {
	if len(names) == 0 {
		return text
	}
	return replaceReferences(text, func(ref string) (string, bool) {
		if len(ref) < len(cidScheme) || !strings.EqualFold(ref[:len(cidScheme)], cidScheme) {
			return "", false
		}
		id, suffix := splitSuffix(ref[len(cidScheme):])
		id = strings.TrimSuffix(strings.TrimPrefix(id, "<"), ">")
		if unescaped, err := url.PathUnescape(id); err == nil {
			id = unescaped
		}
		name, ok := names[id]
		if !ok {
			return "", false
		}
		return name + suffix, true
	})
}

// Flatten strips directory components from local references whose base name
// is one of names, so "assets/css/style.css" becomes "style.css".
func Flatten(text string, names map[string]struct{}) string {
	if len(names) == 0 {
		return text
	}
	return replaceReferences(text, func(ref string) (string, bool) {
		name, suffix, ok := splitLocal(ref)
		if !ok {
			return "", false
		}
		if _, known := names[name]; !known {
			return "", false
		}
		flat := name + suffix
		if flat == ref {
			return "", false
		}
		return flat, true
	})
}

// References returns every reference found in text, in order.
func References(text string) []string {
	var refs []string
	replaceReferences(text, func(ref string) (string, bool) {
		refs = append(refs, ref)
		return "", false
	})
	return refs
}

func replaceReferences(text string, replace func(ref string) (string, bool)) string {
	for _, p := range patterns {
		text = replacePattern(text, p, replace)
	}
	return text
}

func replacePattern(text string, p pattern, replace func(ref string) (string, bool)) string {
	matches := p.re.FindAllStringSubmatchIndex(text, -1)
	if matches == nil {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range matches {
		for _, g := range p.groups {
			start, end := m[2*g], m[2*g+1]
			if start < 0 {
				continue
			}
			if repl, ok := replace(text[start:end]); ok {
				b.WriteString(text[last:start])
				b.WriteString(repl)
				last = end
			}
			break
		}
	}
	b.WriteString(text[last:])
	return b.String()
}

// splitLocal reports the flat file name a relative reference points at.
func splitLocal(ref string) (name string, suffix string, ok bool) {
	if ref == "" || strings.HasPrefix(ref, "//") || strings.HasPrefix(ref, "#") || schemeRe.MatchString(ref) {
		return "", "", false
	}

	p, suffix := splitSuffix(ref)
	if p == "" || strings.HasSuffix(p, "/") {
		return "", "", false
	}
	name = path.Base(p)
	if name == "." || name == ".." || name == "/" {
		return "", "", false
	}
	return name, suffix, true
}

func splitSuffix(ref string) (string, string) {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		return ref[:i], ref[i:]
	}
	return ref, ""
}

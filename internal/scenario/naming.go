package scenario

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

var reUnderscore = regexp.MustCompile(`[_-]{2,}`)

// Slug lowercases s and reduces it to letters, digits, '-' and '_'.
func Slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	clean := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			clean = append(clean, r)
		case unicode.IsSpace(r) || r == '.' || r == '/' || r == '\\':
			clean = append(clean, '-')
		}
	}

	out := reUnderscore.ReplaceAllStringFunc(string(clean), func(m string) string {
		return m[:1]
	})
	return strings.Trim(out, "-_")
}

// OutputName is the GIF file name written into the output directory.
func (s *Scenario) OutputName() string {
	if s.Output != "" {
		return s.Output
	}
	slug := Slug(s.Name)
	if slug == "" {
		slug = "capture"
	}
	return slug + ".gif"
}

// ArchiveName is the zip holding the frames when they are archived.
func (s *Scenario) ArchiveName() string {
	return strings.TrimSuffix(s.OutputName(), ".gif") + "-frames.zip"
}

// ResolveURL joins ref onto base. Absolute refs win.
func ResolveURL(base, ref string) string {
	if ref == "" {
		return base
	}

	u, err := url.Parse(ref)
	if err == nil && u.IsAbs() {
		return u.String()
	}

	b, err := url.Parse(base)
	if err != nil || u == nil {
		return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/")
	}

	return b.ResolveReference(u).String()
}

// StartURL is the page the run opens first.
func (s *Scenario) StartURL(base string) string {
	return ResolveURL(base, s.URL)
}

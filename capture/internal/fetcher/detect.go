package fetcher

import (
	"bytes"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Thresholds of the sufficiency heuristic.
const (
	minBodyBytes = 256
	minTextRunes = 200
	minTextRatio = 0.10
)

// shellRoots are the empty mount points single-page apps ship before their
// scripts run.
var shellRoots = map[string]bool{"root": true, "app": true, "__next": true, "__nuxt": true}

// IsSufficient reports whether an HTML body carries enough visible text to
// be outlined without running its scripts.
func IsSufficient(body []byte) bool {
	if len(body) < minBodyBytes {
		return false
	}
	s := scan(body)
	if s.shell {
		return false
	}
	if s.text < minTextRunes {
		return false
	}
	return float64(s.text)/float64(len(body)) >= minTextRatio
}

type scanResult struct {
	text  int  // non-space runes outside script, style and noscript
	shell bool // an empty SPA mount point or a "enable javascript" notice
}

// scan tokenizes body once, counting visible text and looking for
// script-shell markers.
func scan(body []byte) scanResult {
	var res scanResult
	z := html.NewTokenizer(bytes.NewReader(body))
	skip := 0
	noscript := false
	// mountOpen is set between <div id="root"> and the next token; a closing
	// </div> right after it is an empty mount point.
	mountOpen := false

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return res
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			a := atom.Lookup(name)
			mountOpen = false
			switch a {
			case atom.Script, atom.Style, atom.Template:
				skip++
			case atom.Noscript:
				skip++
				noscript = true
			case atom.Div:
				for hasAttr {
					var key, val []byte
					key, val, hasAttr = z.TagAttr()
					if string(key) == "id" && shellRoots[string(val)] {
						mountOpen = true
					}
				}
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			switch a {
			case atom.Script, atom.Style, atom.Template, atom.Noscript:
				if skip > 0 {
					skip--
				}
				if a == atom.Noscript {
					noscript = false
				}
			case atom.Div:
				if mountOpen {
					res.shell = true
				}
			}
			mountOpen = false
		case html.TextToken:
			if noscript && bytes.Contains(bytes.ToLower(z.Text()), []byte("enable javascript")) {
				res.shell = true
			}
			if skip > 0 {
				continue
			}
			if n := countVisible(z.Raw()); n > 0 {
				mountOpen = false
				res.text += n
			}
		default:
			mountOpen = false
		}
	}
}

func countVisible(b []byte) int {
	n := 0
	for _, r := range string(b) {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

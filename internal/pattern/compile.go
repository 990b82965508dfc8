// Package pattern turns a command pattern plus the active prefix into a
// single anchored regular expression with named captures.
package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

var paramNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Prefix is one entry of a router's prefix stack. A literal prefix is
// regex-escaped at compile time; a non-literal one is spliced in verbatim
// (anchors stripped).
type Prefix struct {
	Source  string
	Literal bool
}

// Compose appends a literal part to the prefix using sep, skipping empty
// parts. Composing onto a regex prefix escapes the new part so it stays
// literal inside the combined expression.
func (p Prefix) Compose(part, sep string) Prefix {
	if part == "" {
		return p
	}
	if p.Literal {
		if p.Source == "" {
			return Prefix{Source: part, Literal: true}
		}
		return Prefix{Source: p.Source + sep + part, Literal: true}
	}
	src := stripAnchors(p.Source)
	if src == "" {
		return Prefix{Source: regexp.QuoteMeta(part), Literal: false}
	}
	return Prefix{Source: src + regexp.QuoteMeta(sep) + regexp.QuoteMeta(part), Literal: false}
}

// Spec describes one compilation. Exactly one of Text and Regexp is set.
// Optional marks named segments that may be absent because their schema field
// is optional, defaulted or nullable.
type Spec struct {
	Text     string
	Regexp   *regexp.Regexp
	Prefix   Prefix
	Optional map[string]bool
}

// Compile builds the anchored matcher. The prefix and the pattern body are
// joined with a whitespace separator only when both are non-empty.
func Compile(spec Spec) (*regexp.Regexp, error) {
	var body string
	if spec.Regexp != nil {
		body = stripAnchors(spec.Regexp.String())
	} else {
		compiled, err := compileText(spec.Text, spec.Optional)
		if err != nil {
			return nil, err
		}
		body = compiled
	}

	pfx := spec.Prefix.Source
	if spec.Prefix.Literal {
		pfx = regexp.QuoteMeta(pfx)
	} else {
		pfx = stripAnchors(pfx)
	}

	full := pfx
	if pfx != "" && body != "" {
		full += `\s+`
	}
	full += body

	re, err := regexp.Compile("^" + full + "$")
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", spec.Text, err)
	}
	return re, nil
}

// compileText translates a whitespace-separated template. A :name segment is
// a named capture; the last segment's capture is greedy so a trailing
// parameter can contain spaces. Optional segments absorb their own leading
// separator so a missing trailing parameter needs no stray whitespace.
func compileText(text string, optional map[string]bool) (string, error) {
	segs := strings.Fields(text)
	seen := make(map[string]bool)

	var b strings.Builder
	for i, seg := range segs {
		last := i == len(segs)-1

		if !strings.HasPrefix(seg, ":") {
			if b.Len() > 0 {
				b.WriteString(`\s+`)
			}
			b.WriteString(regexp.QuoteMeta(seg))
			continue
		}

		name := seg[1:]
		explicitOpt := strings.HasSuffix(name, "?")
		if explicitOpt {
			name = strings.TrimSuffix(name, "?")
		}
		if !paramNameRe.MatchString(name) {
			return "", fmt.Errorf("invalid parameter name %q in pattern %q", name, text)
		}
		if seen[name] {
			return "", fmt.Errorf("duplicate parameter %q in pattern %q", name, text)
		}
		seen[name] = true

		capture := `\S+`
		if last {
			capture = `.+`
		}
		group := fmt.Sprintf(`(?P<%s>%s)`, name, capture)

		if explicitOpt || optional[name] {
			if b.Len() > 0 {
				b.WriteString(`(?:\s+` + group + `)?`)
			} else {
				b.WriteString(`(?:` + group + `)?`)
			}
			continue
		}

		if b.Len() > 0 {
			b.WriteString(`\s+`)
		}
		b.WriteString(group)
	}

	return b.String(), nil
}

// stripAnchors removes a leading ^ and trailing $ from a regex source,
// keeping any leading inline flag group in place.
func stripAnchors(src string) string {
	head := ""
	if m := inlineFlagsRe.FindString(src); m != "" {
		head = m
		src = src[len(m):]
	}
	src = strings.TrimPrefix(src, "^")
	if strings.HasSuffix(src, "$") && !strings.HasSuffix(src, `\$`) {
		src = src[:len(src)-1]
	}
	return head + src
}

var inlineFlagsRe = regexp.MustCompile(`^\(\?[imsU]+\)`)

// Package pod implements the sectioned document markup podherit reads and
// writes: a prelude followed by top-level sections opened by =head1 lines.
// Parse and Serialize round-trip byte-exactly.
package pod

import (
	"strings"
)

// Marker is the first line of every generated file. Files whose first line
// is not the marker are never overwritten.
const Marker = "=for comment POD_DERIVED_INDEX_GENERATED"

const head1Prefix = "=head1 "

// Section is one top-level document section. Raw holds the exact text of
// the section, from its =head1 line up to the next top-level heading.
type Section struct {
	Title string
	Raw   string
}

// NewSection builds a section from a title and body in canonical form.
func NewSection(title, body string) Section {
	raw := head1Prefix + title + "\n\n"
	if body != "" {
		raw += body
		if !strings.HasSuffix(body, "\n") {
			raw += "\n"
		}
		raw += "\n"
	}
	return Section{Title: title, Raw: raw}
}

// Document is a parsed sectioned document.
type Document struct {
	// Prelude is everything before the first top-level heading.
	Prelude  string
	sections []Section
}

// Parse splits text into a prelude and its top-level sections.
func Parse(text string) *Document {
	d := &Document{}
	if text == "" {
		return d
	}

	lines := strings.SplitAfter(text, "\n")
	var cur strings.Builder
	inSection := false
	var title string

	flush := func() {
		if !inSection {
			d.Prelude = cur.String()
		} else {
			d.sections = append(d.sections, Section{Title: title, Raw: cur.String()})
		}
		cur.Reset()
	}

	for _, line := range lines {
		if strings.HasPrefix(line, head1Prefix) {
			flush()
			inSection = true
			title = strings.TrimRight(strings.TrimPrefix(line, head1Prefix), "\n")
		}
		cur.WriteString(line)
	}
	flush()
	return d
}

// Sections returns the top-level sections in declaration order.
func (d *Document) Sections() []Section {
	return d.sections
}

// InsertBefore places s before the section at index i.
func (d *Document) InsertBefore(i int, s Section) {
	if i == 0 {
		d.Prelude = blankTerminated(d.Prelude)
	} else {
		d.sections[i-1].Raw = blankTerminated(d.sections[i-1].Raw)
	}
	d.sections = append(d.sections, Section{})
	copy(d.sections[i+1:], d.sections[i:])
	d.sections[i] = s
}

// Append places s after the last section.
func (d *Document) Append(s Section) {
	if n := len(d.sections); n > 0 {
		d.sections[n-1].Raw = blankTerminated(d.sections[n-1].Raw)
	} else {
		d.Prelude = blankTerminated(d.Prelude)
	}
	d.sections = append(d.sections, s)
}

// blankTerminated ensures text ends with a blank line so a following
// heading stands alone. Empty text stays empty.
func blankTerminated(text string) string {
	if text == "" {
		return text
	}
	for !strings.HasSuffix(text, "\n\n") {
		text += "\n"
	}
	return text
}

// Serialize reassembles the document text. An unmodified document
// round-trips byte-exactly through Parse and Serialize.
func (d *Document) Serialize() string {
	var b strings.Builder
	b.WriteString(d.Prelude)
	for _, s := range d.sections {
		b.WriteString(s.Raw)
	}
	return b.String()
}

// TrailingSections are heading titles conventionally placed last in a
// document. Generated content is inserted before the first of these found
// scanning top-level sections in reverse.
var TrailingSections = map[string]struct{}{
	"AUTHOR":                {},
	"AUTHORS":               {},
	"CONTRIBUTORS":          {},
	"LICENSE":               {},
	"LICENCE":               {},
	"COPYRIGHT":             {},
	"COPYRIGHT AND LICENSE": {},
	"COPYRIGHT & LICENSE":   {},
	"BUGS":                  {},
	"SEE ALSO":              {},
	"CAVEATS":               {},
	"ACKNOWLEDGEMENTS":      {},
	"ACKNOWLEDGMENTS":       {},
	"LIMITATIONS":           {},
	"AVAILABILITY":          {},
}

// Insert places s at its conventional position: immediately before the
// last-most trailing section if one exists, otherwise at the end. A single
// reverse pass; first match wins.
func Insert(d *Document, s Section) {
	for i := len(d.sections) - 1; i >= 0; i-- {
		title := strings.ToUpper(strings.TrimSpace(d.sections[i].Title))
		if _, ok := TrailingSections[title]; ok {
			d.InsertBefore(i, s)
			return
		}
	}
	d.Append(s)
}

// Header returns the generated-file preamble: the marker line plus a
// provenance comment naming the originating classes and source path.
func Header(source string, classes []string) string {
	return Marker + "\n" +
		"=for comment Autogenerated from " + source +
		" (classes: " + strings.Join(classes, ", ") + ") by podherit. Do not edit.\n\n"
}

// IsGenerated reports whether content begins with the generated-file marker.
func IsGenerated(content []byte) bool {
	line, _, _ := strings.Cut(string(content), "\n")
	return strings.TrimRight(line, "\r") == Marker
}

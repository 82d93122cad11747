// Package compose renders a section model into a document section.
package compose

import (
	"fmt"
	"strings"

	"github.com/theorbtwo/podherit/internal/model"
	"github.com/theorbtwo/podherit/internal/pod"
)

// Format substitutes member and class into a method-format template:
// %m is the member label, %c the ancestor class, %% a literal percent.
// Any other %-sequence passes through unchanged.
func Format(tmpl, member, class string) string {
	var b strings.Builder
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] != '%' || i+1 == len(tmpl) {
			b.WriteByte(tmpl[i])
			continue
		}
		i++
		switch tmpl[i] {
		case 'm':
			b.WriteString(member)
		case 'c':
			b.WriteString(class)
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteByte(tmpl[i])
		}
	}
	return b.String()
}

// Compose turns a section model into a document section titled title. Each
// ancestor present in the model contributes a =head2 heading followed by
// its member labels, comma-joined, each rendered through the tmpl template.
// Names that would break the document markup are rejected.
func Compose(m *model.SectionModel, title, tmpl string) (pod.Section, error) {
	var blocks []string
	for _, class := range m.Order {
		labels, ok := m.Members[class]
		if !ok || len(labels) == 0 {
			continue
		}
		if err := checkName(class); err != nil {
			return pod.Section{}, err
		}
		formatted := make([]string, len(labels))
		for i, label := range labels {
			if err := checkName(label); err != nil {
				return pod.Section{}, err
			}
			formatted[i] = Format(tmpl, label, class)
		}
		line := strings.Join(formatted, ", ")
		if strings.HasPrefix(line, "=") {
			return pod.Section{}, fmt.Errorf("%w: member list for %s starts a directive", model.ErrMalformedSection, class)
		}
		blocks = append(blocks, "=head2 "+class+"\n\n"+line)
	}
	return pod.NewSection(title, strings.Join(blocks, "\n\n")), nil
}

// checkName rejects names the markup grammar cannot carry on one line.
func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", model.ErrMalformedSection)
	}
	if strings.ContainsAny(name, "\n\r") {
		return fmt.Errorf("%w: %q contains a line break", model.ErrMalformedSection, name)
	}
	return nil
}

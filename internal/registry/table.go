package registry

import (
	"strings"
)

const noDescription = "No description provided."

// Display renders the help table of every registered handler with the columns
// Key, Properties, Description and Methods. Handlers without an explicit verb
// set show "None" in the Methods column.
func (r *Registry) Display() string {
	handlers := r.Handlers()

	keyWidth := len("Key")
	propWidth := len("Properties")
	descWidth := len("Description")
	for _, h := range handlers {
		keyWidth = max(keyWidth, len(h.Key))
		propWidth = max(propWidth, len(strings.Join(h.Properties, ", ")))
		descWidth = max(descWidth, len(description(h)))
	}

	var b strings.Builder
	writeRow(&b, []string{"Key", "Properties", "Description", "Methods"}, keyWidth, propWidth, descWidth)
	writeRow(&b, []string{
		strings.Repeat("-", keyWidth),
		strings.Repeat("-", propWidth),
		strings.Repeat("-", descWidth),
		"--------",
	}, keyWidth, propWidth, descWidth)

	for _, h := range handlers {
		methods := "None"
		if len(h.Methods) > 0 {
			methods = strings.Join(h.Methods, ", ")
		}
		writeRow(&b, []string{h.Key, strings.Join(h.Properties, ", "), description(h), methods},
			keyWidth, propWidth, descWidth)
	}
	return b.String()
}

func writeRow(b *strings.Builder, cols []string, keyWidth, propWidth, descWidth int) {
	b.WriteString(pad(cols[0], keyWidth))
	b.WriteString(" | ")
	b.WriteString(pad(cols[1], propWidth))
	b.WriteString(" | ")
	b.WriteString(pad(cols[2], descWidth))
	b.WriteString(" | ")
	b.WriteString(cols[3])
	b.WriteByte('\n')
}

func description(h *Handler) string {
	if h.Description == "" {
		return noDescription
	}
	return h.Description
}

// pad right-fills s with spaces to width; longer strings are returned as is.
func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

package detection

import (
	"strconv"
	"strings"
)

// Canonicalize rewrites every "10" in a label to "T" so ten-rank cards read
// like the other ranks ("10H" -> "TH"). The rewrite is a plain substring
// replacement and applies anywhere in the label.
func Canonicalize(label string) string {
	return strings.ReplaceAll(label, "10", "T")
}

// LabelFor maps a class index to its canonical label. Indices outside the
// table become "class_<id>".
func LabelFor(classNames []string, id int) string {
	if id < 0 || id >= len(classNames) {
		return Canonicalize("class_" + strconv.Itoa(id))
	}
	return Canonicalize(classNames[id])
}

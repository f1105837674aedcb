package markup

// Element and attribute classification. The sets are fixed at init and never
// mutated; lookups are safe from any goroutine.

var voidElements = setOf(
	"area", "base", "basefont", "br", "col", "frame", "wbr",
	"hr", "img", "input", "isindex", "link", "meta", "param",
)

// exemptedElements are never anonymized.
var exemptedElements = setOf("html", "meta")

// renderingAttrs are attribute names whose values matter to rendering and are
// left alone by the anonymizer.
var renderingAttrs = setOf(
	"type", "action", "class", "id", "rel", "media", "href",
	"meta", "src", "style", "width", "height", "tabindex",
)

var selectorAttrs = setOf("id", "class")

func setOf(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it] = struct{}{}
	}
	return m
}

// IsVoid reports whether label names an element without a closing tag.
func IsVoid(label string) bool {
	_, ok := voidElements[label]
	return ok
}

// IsExempted reports whether the element's attributes must not be anonymized.
func IsExempted(label string) bool {
	_, ok := exemptedElements[label]
	return ok
}

// IsRenderingAttr reports whether an attribute value is relevant to rendering.
func IsRenderingAttr(name string) bool {
	_, ok := renderingAttrs[name]
	return ok
}

// IsSelectorAttr reports whether an attribute may reference style selectors.
func IsSelectorAttr(name string) bool {
	_, ok := selectorAttrs[name]
	return ok
}

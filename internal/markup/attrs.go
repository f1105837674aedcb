package markup

// Attr is one attribute of an opening tag. Offsets are absolute positions in
// the owning document.
type Attr struct {
	Name  string
	Value string
	// Quote is '"', '\'' or 0 for unquoted and bare attributes.
	Quote byte
	// HasValue is false for bare attributes such as <input disabled>.
	HasValue bool

	// Start..End covers name through the closing quote.
	Start int
	End   int
	// ValueStart..ValueEnd covers the value without quotes.
	ValueStart int
	ValueEnd   int
}

// Attrs parses the attribute list of an opening tag. It is computed on every
// call; callers that need it twice should keep the result.
func (t Token) Attrs() []Attr {
	if t.Kind != OpeningTag {
		return nil
	}
	s := t.src
	end := t.End - 1 // closing '>'
	i := t.Start + 1 + len(t.Label)
	var out []Attr
	for i < end {
		c := s[i]
		if isSpace(c) || c == '/' {
			i++
			continue
		}
		if c == '\\' {
			i += 2
			continue
		}
		a := Attr{Start: i}
		for i < end && !isSpace(s[i]) && s[i] != '=' && s[i] != '>' {
			if s[i] == '/' && i+1 == end {
				break
			}
			i++
		}
		a.Name = s[a.Start:i]
		a.End = i
		if i < end && s[i] == '=' {
			i++
			a.HasValue = true
			if i < end && (s[i] == '"' || s[i] == '\'') {
				a.Quote = s[i]
				j, ok := skipQuote(s[:end], i)
				if !ok {
					// a lone single quote; the scanner only balances double quotes
					a.ValueStart, a.ValueEnd = i+1, end
					a.Value = s[a.ValueStart:a.ValueEnd]
					a.End = end
					out = append(out, a)
					break
				}
				a.ValueStart, a.ValueEnd = i+1, j-1
				i = j
			} else {
				a.ValueStart = i
				for i < end && !isSpace(s[i]) {
					if s[i] == '/' && i+1 == end {
						break
					}
					i++
				}
				a.ValueEnd = i
			}
			a.Value = s[a.ValueStart:a.ValueEnd]
			a.End = i
		} else {
			a.ValueStart, a.ValueEnd = i, i
		}
		if a.Name != "" {
			out = append(out, a)
		}
	}
	return out
}

// Attr returns the first attribute called name.
func (t Token) Attr(name string) (Attr, bool) {
	for _, a := range t.Attrs() {
		if a.Name == name {
			return a, true
		}
	}
	return Attr{}, false
}

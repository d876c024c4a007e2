package message

// Decoration wraps a text fragment in markdown markers.
type Decoration struct {
	prefix string
	suffix string
}

// NewDecoration creates a decoration with distinct opening and closing markers
func NewDecoration(prefix, suffix string) Decoration {
	return Decoration{prefix: prefix, suffix: suffix}
}

func symmetric(marker string) Decoration {
	return Decoration{prefix: marker, suffix: marker}
}

// Decorations supported by the chat markdown dialect.
var (
	Italics    = symmetric("*")
	Bold       = symmetric("**")
	Strikeout  = symmetric("~~")
	CodeSimple = symmetric("`")
	CodeLong   = symmetric("```")
	Underline  = symmetric("__")
	Spoiler    = symmetric("||")
	Quote      = NewDecoration("> ", "")
	BlockQuote = NewDecoration(">>> ", "")
)

// Prefix returns the opening marker
func (d Decoration) Prefix() string {
	return d.prefix
}

// Suffix returns the closing marker
func (d Decoration) Suffix() string {
	return d.suffix
}

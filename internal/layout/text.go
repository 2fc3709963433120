package layout

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// WrapColumns is the character column multiline text wraps at.
	WrapColumns = 40
	// MaxFontSize bounds font growth for text narrow enough to never fill
	// the target width.
	MaxFontSize = 1000
	lineSpacing = 4
)

// fontSizeTable maps a character count to a starting pixel size that fills
// the canvas width with typical text.
var fontSizeTable = map[int]int{
	2: 728, 3: 511, 4: 372, 5: 300, 6: 249, 7: 213, 8: 184, 9: 165,
	10: 148, 11: 135, 12: 124, 13: 115, 14: 106, 15: 98, 16: 92, 17: 87,
	18: 83, 19: 77, 20: 73, 21: 70, 22: 67, 23: 64, 24: 61, 25: 59,
	26: 56, 27: 54, 28: 52, 29: 50, 30: 48, 31: 47, 32: 45, 33: 44,
	34: 43, 35: 42, 36: 40, 37: 39, 38: 38, 39: 37, 40: 36, 41: 35,
	42: 34, 43: 33, 44: 32, 45: 31, 46: 30, 47: 29, 48: 28, 49: 28,
	50: 28,
}

// FontSizeEstimate returns the starting size for text of length characters,
// padded by 20%. Lengths past the table get 25, lengths below it 728.
func FontSizeEstimate(length int) int {
	est, ok := fontSizeTable[length]
	if !ok {
		if length > len(fontSizeTable) {
			est = 25
		} else {
			est = 728
		}
	}
	return est + est/5
}

// String is a block of text fitted to a width.
type String struct {
	placement
	Text      string // as rendered, wrapped when multiline
	Source    string
	Multiline bool
	FontSize  int

	fonts   *Fonts
	lines   []string
	metrics textMetrics
}

// NewString fits text to the target width (CanvasWidth by default).
func NewString(text string, opts ...Option) (*String, error) {
	o := buildOptions(opts)
	fonts := o.fonts
	if fonts == nil {
		var err error
		if fonts, err = DefaultFonts(); err != nil {
			return nil, err
		}
	}

	s := &String{
		placement: o.placement(),
		Source:    text,
		Multiline: o.multiline,
		fonts:     fonts,
	}

	if s.Multiline {
		s.lines = Wrap(text, WrapColumns, o.keepWhitespace)
	} else {
		s.lines = strings.Split(text, "\n")
	}
	s.Text = strings.Join(s.lines, "\n")

	var err error
	switch {
	case o.maxFontSize > 0:
		s.FontSize, err = ShrinkFontSize(fonts, s.lines, o.width, o.maxFontSize)
		if err != nil {
			return nil, err
		}
	default:
		start := FontSizeEstimate(utf8.RuneCountInString(text))
		if s.Multiline && utf8.RuneCountInString(text) > WrapColumns {
			start = FontSizeEstimate(WrapColumns)
		}
		s.FontSize, err = FitFontSize(fonts, s.lines, o.width, start)
		if err != nil {
			return nil, err
		}
	}

	if err := s.measure(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *String) measure() error {
	w, err := s.fonts.TextWidth(s.lines, s.FontSize)
	if err != nil {
		return err
	}
	m, err := s.fonts.metrics(s.Text, s.FontSize)
	if err != nil {
		return err
	}
	s.metrics = m
	s.width = w

	switch {
	case s.Multiline || len(s.lines) > 1:
		n := len(s.lines)
		s.height = n*m.lineHeight + (n-1)*m.lineGap
	case m.inkHeight == 0:
		// Blank text reserves a line of space.
		s.height = m.lineHeight
	default:
		s.height = m.inkHeight
	}
	return nil
}

func (s *String) draw(dst *image.RGBA, x, y int) error {
	if s.Multiline || len(s.lines) > 1 || s.metrics.inkHeight == 0 {
		for i, line := range s.lines {
			baseline := y + s.metrics.ascent + i*(s.metrics.lineHeight+s.metrics.lineGap)
			if err := s.fonts.DrawString(dst, line, s.FontSize, x, baseline, color.Black); err != nil {
				return err
			}
		}
		return nil
	}
	// Place the top of the ink at y.
	return s.fonts.DrawString(dst, s.lines[0], s.FontSize, x, y-s.metrics.inkTop, color.Black)
}

func (s *String) String() string {
	return fmt.Sprintf("text = %q, size = %dx%d, font = %dpx", s.Text, s.width, s.height, s.FontSize)
}

// FitFontSize returns the largest size whose widest line fits within width,
// starting the search at start. It grows while the text fits, then shrinks
// past the first size that does not. Text with no width keeps start; the
// result is never below 1 or above MaxFontSize.
func FitFontSize(fonts *Fonts, lines []string, width, start int) (int, error) {
	size := clamp(start)
	w, err := fonts.TextWidth(lines, size)
	if err != nil {
		return 0, err
	}
	if w == 0 {
		return size, nil
	}

	for w <= width && size < MaxFontSize {
		size++
		if w, err = fonts.TextWidth(lines, size); err != nil {
			return 0, err
		}
	}
	return shrink(fonts, lines, width, size, w)
}

// ShrinkFontSize returns the largest size no greater than limit whose widest
// line fits within width. Text with no width keeps limit.
func ShrinkFontSize(fonts *Fonts, lines []string, width, limit int) (int, error) {
	size := clamp(limit)
	w, err := fonts.TextWidth(lines, size)
	if err != nil {
		return 0, err
	}
	return shrink(fonts, lines, width, size, w)
}

// shrink steps size down from a measured width w until the text fits.
func shrink(fonts *Fonts, lines []string, width, size, w int) (int, error) {
	var err error
	for w > width && size > 1 {
		size--
		if w, err = fonts.TextWidth(lines, size); err != nil {
			return 0, err
		}
	}
	return size, nil
}

func clamp(size int) int {
	if size < 1 {
		return 1
	}
	if size > MaxFontSize {
		return MaxFontSize
	}
	return size
}

// Wrap greedily fills lines of at most width characters. Words break after
// hyphens and words longer than a line are split. With keepNewlines, every
// newline in text forces a break and blank lines survive; otherwise all
// whitespace collapses to single spaces.
func Wrap(text string, width int, keepNewlines bool) []string {
	if !keepNewlines {
		return wrapParagraph(text, width)
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		if strings.TrimSpace(para) == "" {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, wrapParagraph(para, width)...)
	}
	return lines
}

func wrapParagraph(text string, width int) []string {
	if width < 1 {
		width = 1
	}
	var (
		lines []string
		cur   []rune
	)
	flush := func() {
		lines = append(lines, strings.TrimRightFunc(string(cur), unicode.IsSpace))
		cur = cur[:0]
	}

	for _, word := range splitWords(text) {
		chunk := []rune(word)
		for len(chunk) > 0 {
			sep := 0
			if len(cur) > 0 {
				sep = 1
			}
			if len(cur)+sep+len(chunk) <= width {
				if sep == 1 && !endsWithHyphen(cur) {
					cur = append(cur, ' ')
				}
				cur = append(cur, chunk...)
				chunk = nil
				continue
			}
			if len(chunk) <= width {
				flush()
				continue
			}
			// Long word: fill what is left of the line.
			room := width - len(cur) - sep
			if room <= 0 {
				flush()
				continue
			}
			if sep == 1 && !endsWithHyphen(cur) {
				cur = append(cur, ' ')
			}
			cur = append(cur, chunk[:room]...)
			chunk = chunk[room:]
			flush()
		}
	}
	if len(cur) > 0 || len(lines) == 0 {
		flush()
	}
	return lines
}

// splitWords splits on whitespace and after hyphens that follow a letter.
// A hyphen-split piece is marked by its trailing hyphen and joins the next
// piece without a space.
func splitWords(text string) []string {
	var words []string
	for _, field := range strings.Fields(text) {
		start := 0
		runes := []rune(field)
		for i := 1; i < len(runes)-1; i++ {
			if runes[i] == '-' && unicode.IsLetter(runes[i-1]) && unicode.IsLetter(runes[i+1]) {
				words = append(words, string(runes[start:i+1]))
				start = i + 1
			}
		}
		words = append(words, string(runes[start:]))
	}
	return words
}

func endsWithHyphen(r []rune) bool {
	return len(r) > 0 && r[len(r)-1] == '-'
}

package detection

import (
	"errors"
	"time"
	"unicode"
	"unicode/utf8"

	"crucible-hq/crucible/pkg/patterns"
)

const (
	// DefaultContextWords is the number of words kept on each side of a match.
	DefaultContextWords = 6

	// maxContextBytes caps each side of the context window so a single
	// unbroken "word" cannot drag megabytes into a result.
	maxContextBytes = 240
)

// Engine evaluates rationale text against a pattern library. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	library      *patterns.Library
	rules        []patterns.CompiledRule
	contextWords int
	now          func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithContextWords sets how many words of context surround each match.
func WithContextWords(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.contextWords = n
		}
	}
}

// WithClock overrides the clock used to stamp results.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an engine over lib.
func NewEngine(lib *patterns.Library, opts ...Option) (*Engine, error) {
	if lib == nil {
		return nil, errors.New("detection: pattern library is required")
	}

	e := &Engine{
		library:      lib,
		rules:        lib.Compiled(),
		contextWords: DefaultContextWords,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Library returns the library the engine evaluates.
func (e *Engine) Library() *patterns.Library {
	return e.library
}

// Analyze classifies text. Any string is accepted, including empty or
// invalid UTF-8; it never fails.
func (e *Engine) Analyze(text string) *Result {
	result := &Result{
		Input:          text,
		Matches:        []Match{},
		LibraryVersion: e.library.Version(),
		Timestamp:      e.now().UTC(),
	}

	norm := normalize(text)
	if norm.text == "" {
		return result
	}

	for _, rule := range e.rules {
		for _, loc := range rule.Expr.FindAllStringIndex(norm.text, -1) {
			span := norm.span(loc[0], loc[1])
			ctx := e.contextSpan(text, span)

			result.Matches = append(result.Matches, Match{
				Rule:        rule.Name,
				Category:    rule.Category,
				Span:        span,
				Text:        text[span.Start:span.End],
				Context:     text[ctx.Start:ctx.End],
				ContextSpan: ctx,
			})
		}
	}

	result.Flagged = len(result.Matches) > 0
	return result
}

// contextSpan widens span by up to contextWords words on each side, trimmed
// of surrounding whitespace. Each side is capped at maxContextBytes.
func (e *Engine) contextSpan(text string, span Span) Span {
	floor := min(alignForward(text, max(0, span.Start-maxContextBytes)), span.Start)
	ceil := max(alignBackward(text, min(len(text), span.End+maxContextBytes)), span.End)

	start := span.Start
	for words := 0; words < e.contextWords && start > floor; words++ {
		start = skipBackward(text, start, floor, true)
		start = skipBackward(text, start, floor, false)
	}
	start = skipForward(text, start, span.Start, true)

	end := span.End
	for words := 0; words < e.contextWords && end < ceil; words++ {
		end = skipForward(text, end, ceil, true)
		end = skipForward(text, end, ceil, false)
	}
	end = skipBackward(text, end, span.End, true)

	return Span{Start: start, End: end}
}

// skipBackward moves i left, not past floor, over runes that are
// (space=true) or are not (space=false) whitespace.
func skipBackward(text string, i, floor int, space bool) int {
	for i > floor {
		r, width := utf8.DecodeLastRuneInString(text[floor:i])
		if unicode.IsSpace(r) != space {
			break
		}
		i -= width
	}
	return i
}

// skipForward moves i right, not past ceil, over runes that are
// (space=true) or are not (space=false) whitespace.
func skipForward(text string, i, ceil int, space bool) int {
	for i < ceil {
		r, width := utf8.DecodeRuneInString(text[i:ceil])
		if unicode.IsSpace(r) != space {
			break
		}
		i += width
	}
	return i
}

// alignForward moves i to the next rune start.
func alignForward(text string, i int) int {
	for i < len(text) && !utf8.RuneStart(text[i]) {
		i++
	}
	return i
}

// alignBackward moves i to the previous rune start.
func alignBackward(text string, i int) int {
	if i >= len(text) {
		return len(text)
	}
	for i > 0 && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}

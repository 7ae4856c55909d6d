// Package talk implements the pattern-matching conversation partner behind
// the Talk RPC.
package talk

import (
	"math/rand/v2"
	"strings"
	"unicode"
)

// Responder answers chat messages. The tables it reads are shared and
// read-only, so a Responder is safe for concurrent use.
type Responder struct {
	pick func(n int) int
}

// New returns a Responder that picks among candidate answers with pick,
// which must return a value in [0, n). A nil pick selects uniformly.
func New(pick func(n int) int) *Responder {
	if pick == nil {
		pick = rand.IntN
	}
	return &Responder{pick: pick}
}

var std = New(nil)

// Reply answers input using the default Responder.
func Reply(input string) (answer string, goodbye bool) { return std.Reply(input) }

// Intro greets name using the default Responder.
func Intro(name string) []string { return std.Intro(name) }

// Reply answers one message. goodbye is true when the input ends the
// conversation.
func (r *Responder) Reply(input string) (answer string, goodbye bool) {
	input = preprocess(input)
	if goodbyeInputs[input] {
		return r.choose(goodbyeResponses), true
	}
	return r.lookup(input), false
}

// Intro returns the opening lines of a conversation with name.
func (r *Responder) Intro(name string) []string {
	lines := make([]string, 0, len(introResponses)+2)
	for _, line := range introResponses {
		lines = append(lines, strings.ReplaceAll(line, "%s", name))
	}
	lines = append(lines, r.choose(facts), "How are you feeling today?")
	return lines
}

func (r *Responder) lookup(input string) string {
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(input)
		if m == nil {
			continue
		}
		answer := r.choose(p.responses)
		if !strings.Contains(answer, "%s") {
			return answer
		}
		if len(m) > 1 {
			return strings.ReplaceAll(answer, "%s", reflect(m[1]))
		}
	}
	return r.choose(defaultResponses)
}

func (r *Responder) choose(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return list[r.pick(len(list))]
}

// preprocess trims punctuation and whitespace from both ends and lowercases.
func preprocess(input string) string {
	trimmed := strings.TrimFunc(input, func(c rune) bool {
		if unicode.IsSpace(c) {
			return true
		}
		// ASCII punctuation is split across the Punct and Symbol classes.
		return c <= unicode.MaxASCII && (unicode.IsPunct(c) || unicode.IsSymbol(c))
	})
	return strings.ToLower(trimmed)
}

// reflect swaps first and second person in fragment.
func reflect(fragment string) string {
	words := strings.Fields(fragment)
	for i, w := range words {
		if swapped, ok := reflectedWords[w]; ok {
			words[i] = swapped
		}
	}
	return strings.Join(words, " ")
}

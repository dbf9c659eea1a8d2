// Package arghelper parses "--key value..." command lines. Every token after a
// "--key" token, up to the next "--" token, is a value of that key.
package arghelper

import "strings"

// Argument is one flag with its values in order.
type Argument struct {
	Key    string
	Values []string
}

// Args is the parsed command line.
type Args struct {
	args []Argument
}

// Parse groups args (without the program name). Tokens before the first flag
// are ignored.
func Parse(args []string) *Args {
	out := &Args{}
	var current *Argument

	for _, tok := range args {
		if strings.HasPrefix(tok, "--") {
			if current != nil {
				out.args = append(out.args, *current)
			}
			current = &Argument{Key: strings.TrimLeft(tok, "-")}
			continue
		}
		if current != nil {
			current.Values = append(current.Values, tok)
		}
	}
	if current != nil {
		out.args = append(out.args, *current)
	}
	return out
}

// Get returns the first argument named key.
func (a *Args) Get(key string) (Argument, bool) {
	for _, arg := range a.args {
		if arg.Key == key {
			return arg, true
		}
	}
	return Argument{}, false
}

// Value returns the values of the first argument named key joined by a space.
func (a *Args) Value(key string) (string, bool) {
	arg, ok := a.Get(key)
	if !ok {
		return "", false
	}
	return strings.Join(arg.Values, " "), true
}

// Keys returns the flag names in command-line order.
func (a *Args) Keys() []string {
	keys := make([]string, len(a.args))
	for i, arg := range a.args {
		keys[i] = arg.Key
	}
	return keys
}

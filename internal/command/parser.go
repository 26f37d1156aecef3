package command

import (
	"fmt"
	"strconv"
	"strings"
)

// Command is a parsed command-bar input.
type Command interface {
	commandName() string
}

type ViewToggle struct{}

type ThemeToggle struct{}

// ModelCall asks a model card for Count completions; zero means the configured default.
type ModelCall struct {
	Model string
	Count int
}

type KeyAdd struct {
	Service string
	Key     string
}

type KeyRemove struct {
	Service string
}

type CircularSiblings struct {
	Enabled bool
}

func (ViewToggle) commandName() string       { return "view" }
func (ThemeToggle) commandName() string      { return "theme" }
func (ModelCall) commandName() string        { return "model-call" }
func (KeyAdd) commandName() string           { return "key-add" }
func (KeyRemove) commandName() string        { return "key-remove" }
func (CircularSiblings) commandName() string { return "circular" }

// ParseError reports input the command language does not accept.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	if strings.TrimSpace(e.Input) == "" {
		return "parse command: " + e.Reason
	}
	return fmt.Sprintf("parse command %q: %s", e.Input, e.Reason)
}

func Parse(input string) (Command, error) {
	fail := func(format string, args ...any) (Command, error) {
		return nil, &ParseError{Input: input, Reason: fmt.Sprintf(format, args...)}
	}

	words, balanced := splitWords(input)
	if !balanced {
		return fail("unterminated quote")
	}
	if len(words) == 0 {
		return fail("empty command")
	}

	head, args := words[0], words[1:]
	switch {
	case head == "view":
		if len(args) > 0 {
			return fail("view takes no arguments")
		}
		return ViewToggle{}, nil
	case head == "theme":
		if len(args) > 0 {
			return fail("theme takes no arguments")
		}
		return ThemeToggle{}, nil
	case strings.HasPrefix(head, "@"):
		return parseModelCall(input, head[1:], args)
	case head == "key":
		return parseKey(input, args)
	case head == "circular":
		if len(args) != 1 {
			return fail("usage: circular on|off")
		}
		switch strings.ToLower(args[0]) {
		case "on", "true", "yes":
			return CircularSiblings{Enabled: true}, nil
		case "off", "false", "no":
			return CircularSiblings{Enabled: false}, nil
		}
		return fail("usage: circular on|off")
	default:
		return fail("unknown command %q", head)
	}
}

// parseModelCall accepts "@name", "@name N" and "@nameN".
func parseModelCall(input, rest string, args []string) (Command, error) {
	fail := func(reason string) (Command, error) {
		return nil, &ParseError{Input: input, Reason: reason}
	}

	i := 0
	for i < len(rest) && isLetter(rest[i]) {
		i++
	}
	name, tail := rest[:i], rest[i:]
	if name == "" {
		return fail("expected a model name after @")
	}
	if tail != "" {
		if len(args) > 0 {
			return fail("too many arguments")
		}
		args = []string{tail}
	}
	switch len(args) {
	case 0:
		return ModelCall{Model: name}, nil
	case 1:
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 || strings.TrimLeft(args[0], "0123456789") != "" {
			return fail(fmt.Sprintf("invalid count %q", args[0]))
		}
		return ModelCall{Model: name, Count: n}, nil
	default:
		return fail("too many arguments")
	}
}

func parseKey(input string, args []string) (Command, error) {
	fail := func(reason string) (Command, error) {
		return nil, &ParseError{Input: input, Reason: reason}
	}
	if len(args) == 0 {
		return fail("usage: key add <service> <key> | key remove <service>")
	}
	switch args[0] {
	case "add", "set":
		if len(args) != 3 || strings.TrimSpace(args[1]) == "" || strings.TrimSpace(args[2]) == "" {
			return fail("usage: key add <service> <key>")
		}
		return KeyAdd{Service: args[1], Key: args[2]}, nil
	case "remove", "rm":
		if len(args) != 2 || strings.TrimSpace(args[1]) == "" {
			return fail("usage: key remove <service>")
		}
		return KeyRemove{Service: args[1]}, nil
	default:
		return fail(fmt.Sprintf("unknown key subcommand %q", args[0]))
	}
}

func isLetter(b byte) bool {
	return ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

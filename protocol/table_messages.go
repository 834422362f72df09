package protocol

import (
	"encoding"
	"fmt"
	"strconv"
	"strings"
)

// Table messages travel inside TABLE_DATA as colon separated words,
// e.g. "sit:3", "game:seat:2:toact:200" or "game:flop:AS:TD:2C".

// Msg joins the parts of a table message. Parts with a text form, such as
// cards, are written with it.
func Msg(parts ...any) string {
	words := make([]string, len(parts))
	for i, p := range parts {
		if m, ok := p.(encoding.TextMarshaler); ok {
			if text, err := m.MarshalText(); err == nil {
				words[i] = string(text)
				continue
			}
		}
		words[i] = fmt.Sprint(p)
	}
	return strings.Join(words, ":")
}

// Command is a table message split into its words
type Command []string

// ParseCommand splits a table message
func ParseCommand(s string) Command {
	if s == "" {
		return nil
	}
	return Command(strings.Split(s, ":"))
}

// Arg returns word i or ""
func (c Command) Arg(i int) string {
	if i < 0 || i >= len(c) {
		return ""
	}
	return c[i]
}

// Int parses word i as a non-negative int
func (c Command) Int(i int) (int, bool) {
	n, err := strconv.Atoi(c.Arg(i))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Is reports whether the command starts with the given words
func (c Command) Is(words ...string) bool {
	if len(c) < len(words) {
		return false
	}
	for i, w := range words {
		if c[i] != w {
			return false
		}
	}
	return true
}

// Field looks up the word following key, as in "dealer:3:small:2"
func (c Command) Field(key string) (string, bool) {
	for i := 0; i+1 < len(c); i++ {
		if c[i] == key {
			return c[i+1], true
		}
	}
	return "", false
}

// IntField is Field parsed as an int
func (c Command) IntField(key string) (int, bool) {
	v, ok := c.Field(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

package command

import "strings"

// Tokenize splits a command line on single spaces. It does not collapse
// runs of spaces or trim the line: an empty field between two spaces is a
// token in its own right, matching the wire format's definition of the
// space as a plain separator rather than whitespace in the general sense.
func Tokenize(line string) []string {
	if line == "" {
		return nil
	}
	return strings.Split(line, " ")
}

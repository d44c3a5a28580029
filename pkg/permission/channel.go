package permission

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// InteractionChannel is the synchronous confirmation surface the Gate blocks
// on. Implementations may take arbitrarily long to answer; the Gate applies
// no timeout.
type InteractionChannel interface {
	// PromptYesNo asks a y/n question. Empty input and anything other than
	// "y"/"yes" answer false.
	PromptYesNo(message string) (bool, error)

	// PromptExactMatch asks the user to type the required literal exactly.
	// Matching is case-sensitive; any other input answers false.
	PromptExactMatch(message, required string) (bool, error)
}

// ConsoleChannel prompts on a reader/writer pair, normally stdin/stdout.
type ConsoleChannel struct {
	reader *bufio.Scanner
	writer io.Writer
}

// NewConsoleChannel creates a console-backed interaction channel.
func NewConsoleChannel(reader io.Reader, writer io.Writer) *ConsoleChannel {
	return &ConsoleChannel{
		reader: bufio.NewScanner(reader),
		writer: writer,
	}
}

// PromptYesNo implements InteractionChannel.
func (c *ConsoleChannel) PromptYesNo(message string) (bool, error) {
	fmt.Fprintf(c.writer, "%s [y/N]: ", message)

	line, err := c.readLine()
	if err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// PromptExactMatch implements InteractionChannel.
func (c *ConsoleChannel) PromptExactMatch(message, required string) (bool, error) {
	fmt.Fprintf(c.writer, "%s\nType %s to confirm: ", message, required)

	line, err := c.readLine()
	if err != nil {
		return false, err
	}

	return strings.TrimSpace(line) == required, nil
}

func (c *ConsoleChannel) readLine() (string, error) {
	if !c.reader.Scan() {
		if err := c.reader.Err(); err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		// EOF counts as an empty (denying) answer.
		return "", nil
	}
	return c.reader.Text(), nil
}

// ScriptedChannel answers prompts from a fixed script. It exists so tests can
// assert exact prompt/response pairs without terminal I/O.
type ScriptedChannel struct {
	Responses []string
	Prompts   []string
	next      int
}

// PromptYesNo implements InteractionChannel.
func (s *ScriptedChannel) PromptYesNo(message string) (bool, error) {
	answer := s.take(message)
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// PromptExactMatch implements InteractionChannel.
func (s *ScriptedChannel) PromptExactMatch(message, required string) (bool, error) {
	return strings.TrimSpace(s.take(message)) == required, nil
}

func (s *ScriptedChannel) take(prompt string) string {
	s.Prompts = append(s.Prompts, prompt)
	if s.next >= len(s.Responses) {
		return ""
	}
	answer := s.Responses[s.next]
	s.next++
	return answer
}

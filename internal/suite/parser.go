package suite

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/insys-icom/medusa/internal/metadata"
	"github.com/insys-icom/medusa/internal/value"
)

// cellSplit mirrors Robot Framework's plain-text format: cells are
// separated by two or more spaces, or a tab.
var cellSplit = regexp.MustCompile(`\t|  +`)

// bracketList recognizes a bracket-literal nested list cell, e.g.
// "[one,two,three]" — the textual convention this reader uses to express
// nested @{LIST_OF_LISTS} entries in a plain-text suite file.
var bracketList = regexp.MustCompile(`^\[(.*)\]$`)

const sectionSettings = "settings"
const sectionVariables = "variables"

// ParseFile reads a .robot suite file from disk into a Suite.
func ParseFile(path string) (*Suite, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("suite: opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return Parse(path, f)
}

// Parse reads a suite from an arbitrary io.Reader, primarily for tests.
func Parse(path string, r io.Reader) (*Suite, error) {
	s := &Suite{Path: path, Variables: value.Table{}}

	scanner := bufio.NewScanner(r)
	section := ""
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if strings.HasPrefix(trimmed, "***") {
			section = strings.ToLower(strings.Trim(trimmed, "* "))
			continue
		}

		cells := splitCells(line)
		if len(cells) == 0 {
			continue
		}

		switch section {
		case sectionSettings:
			if err := parseSettingLine(s, cells); err != nil {
				return nil, fmt.Errorf("suite: %s: %w", path, err)
			}
		case sectionVariables:
			if err := parseVariableLine(s, cells); err != nil {
				return nil, fmt.Errorf("suite: %s: %w", path, err)
			}
		default:
			// Test Cases / Keywords / etc. are irrelevant to the scheduler.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("suite: reading %s: %w", path, err)
	}
	return s, nil
}

func splitCells(line string) []string {
	raw := cellSplit.Split(strings.TrimRight(line, " \t"), -1)
	cells := make([]string, 0, len(raw))
	for _, c := range raw {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		cells = append(cells, c)
	}
	return cells
}

// parseSettingLine recognizes "Metadata    key    token token ..." lines;
// everything else in *** Settings *** is outside the core's concern.
func parseSettingLine(s *Suite, cells []string) error {
	if !strings.EqualFold(cells[0], "Metadata") {
		return nil
	}
	if len(cells) < 2 {
		return fmt.Errorf("%w: Metadata line with no key", metadata.ErrMalformed)
	}
	s.Entries = append(s.Entries, metadata.RawEntry{
		Key:    cells[1],
		Tokens: cells[2:],
	})
	return nil
}

// parseVariableLine recognizes ${SCALAR}, @{LIST}, and &{DICT} declarations.
// Values may reference variables declared earlier in the same section,
// resolved against the table built so far.
func parseVariableLine(s *Suite, cells []string) error {
	name := cells[0]
	rest := cells[1:]

	switch {
	case strings.HasPrefix(name, "$"):
		return parseScalarVariable(s, name, rest)
	case strings.HasPrefix(name, "@"):
		return parseListVariable(s, name, rest)
	case strings.HasPrefix(name, "&"):
		return parseDictVariable(s, name, rest)
	default:
		return fmt.Errorf("unrecognized variable declaration %q", name)
	}
}

func bareName(token string) string {
	return strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(token, "$"), "{"), "}")
}

func parseScalarVariable(s *Suite, nameToken string, rest []string) error {
	name := bareName(nameToken)
	if len(rest) == 0 || (len(rest) == 1 && (rest[0] == "None" || rest[0] == "${None}")) {
		s.Variables[name] = value.Unbound()
		return nil
	}
	joined := strings.Join(rest, " ")
	resolved, err := value.Resolve(joined, s.Variables)
	if err != nil {
		return err
	}
	s.Variables[name] = resolved
	return nil
}

func parseListVariable(s *Suite, nameToken string, rest []string) error {
	name := bareName(nameToken)
	items := make([]value.Value, 0, len(rest))
	for _, cell := range rest {
		if m := bracketList.FindStringSubmatch(cell); m != nil {
			items = append(items, parseBracketList(m[1]))
			continue
		}
		resolved, err := value.Resolve(cell, s.Variables)
		if err != nil {
			return err
		}
		items = append(items, resolved)
	}
	s.Variables[name] = value.NewSequence(items)
	return nil
}

func parseBracketList(inner string) value.Value {
	parts := strings.Split(inner, ",")
	items := make([]value.Value, 0, len(parts))
	for _, p := range parts {
		items = append(items, value.NewScalar(strings.TrimSpace(p)))
	}
	return value.NewSequence(items)
}

func parseDictVariable(s *Suite, nameToken string, rest []string) error {
	name := bareName(nameToken)
	pairs := make([]value.Pair, 0, len(rest))
	for _, cell := range rest {
		kv := strings.SplitN(cell, "=", 2)
		if len(kv) != 2 {
			return fmt.Errorf("dict cell %q is not key=value", cell)
		}
		resolved, err := value.Resolve(kv[1], s.Variables)
		if err != nil {
			return err
		}
		pairs = append(pairs, value.Pair{Key: kv[0], Val: resolved})
	}
	s.Variables[name] = value.NewMapping(pairs)
	return nil
}

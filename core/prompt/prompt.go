package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"rom-manager/core/catalog"
)

// Candidate is a rom offered to a Decider together with the name of the
// game that owns it.
type Candidate struct {
	Rom  catalog.Rom
	Game string
}

// Decider picks among catalog roms that share one identity.
// ok is false when the user declines to choose.
type Decider interface {
	Choose(ctx context.Context, entry string, candidates []Candidate) (index int, ok bool, err error)
}

// Confirmer approves a batch of destructive changes.
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// First always chooses the first candidate.
type First struct{}

func (First) Choose(_ context.Context, _ string, candidates []Candidate) (int, bool, error) {
	return 0, len(candidates) > 0, nil
}

// Decline never chooses.
type Decline struct{}

func (Decline) Choose(context.Context, string, []Candidate) (int, bool, error) {
	return 0, false, nil
}

// AutoConfirm approves everything, as with --yes.
type AutoConfirm struct{}

func (AutoConfirm) Confirm(context.Context, string) (bool, error) {
	return true, nil
}

// Terminal asks questions on an interactive stream.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminal reads answers from in and writes questions to out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Choose lists the candidates and reads a 1-based index. An empty answer
// declines.
func (t *Terminal) Choose(_ context.Context, entry string, candidates []Candidate) (int, bool, error) {
	fmt.Fprintf(t.out, "\n%q matches several roms:\n", entry)
	for i, c := range candidates {
		fmt.Fprintf(t.out, "  [%d] %s (%s)\n", i+1, c.Rom.Name, c.Game)
	}

	for {
		fmt.Fprint(t.out, "Select a rom (empty to skip): ")
		answer, err := t.readLine()
		if err == io.EOF {
			return 0, false, nil
		}
		if err != nil {
			return 0, false, err
		}
		if answer == "" {
			return 0, false, nil
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(candidates) {
			return n - 1, true, nil
		}
		fmt.Fprintf(t.out, "Invalid choice %q\n", answer)
	}
}

// Confirm requires the literal answer "yes".
func (t *Terminal) Confirm(_ context.Context, message string) (bool, error) {
	fmt.Fprintf(t.out, "\n%s\nType 'yes' to confirm: ", message)
	answer, err := t.readLine()
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return answer == "yes", nil
}

// SelectSystems lets the user pick systems by 1-based index, separated by
// commas or spaces. "all" selects every system.
func (t *Terminal) SelectSystems(_ context.Context, systems []catalog.System) ([]catalog.System, error) {
	if len(systems) == 0 {
		return nil, nil
	}

	fmt.Fprintln(t.out, "\nSystems:")
	for i, s := range systems {
		fmt.Fprintf(t.out, "  [%d] %s\n", i+1, s.Name)
	}
	fmt.Fprint(t.out, "Select systems (e.g. 1,3 or all): ")

	answer, err := t.readLine()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return parseSelection(answer, systems)
}

func parseSelection(answer string, systems []catalog.System) ([]catalog.System, error) {
	if strings.EqualFold(answer, "all") {
		return systems, nil
	}

	seen := make(map[int]struct{})
	fields := strings.FieldsFunc(answer, func(r rune) bool { return r == ',' || r == ' ' })
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 || n > len(systems) {
			return nil, fmt.Errorf("invalid system selection %q", f)
		}
		seen[n-1] = struct{}{}
	}

	indexes := make([]int, 0, len(seen))
	for i := range seen {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	selected := make([]catalog.System, 0, len(indexes))
	for _, i := range indexes {
		selected = append(selected, systems[i])
	}
	return selected, nil
}

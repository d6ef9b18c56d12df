package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"enigma/internal/enigma"
)

// DefaultGroupSize is the number of symbols per output group.
const DefaultGroupSize = 5

// Kind classifies a processed line.
type Kind string

const (
	KindSettings Kind = "settings"
	KindMessage  Kind = "message"
	KindBlank    Kind = "blank"
)

// Entry is one processed line as handed to a Recorder.
type Entry struct {
	Line     int
	Kind     Kind
	Settings string // settings line in effect after this line
	Input    string
	Output   string
	// Positions holds the rotor symbols after the line was processed.
	Positions string
}

// Recorder receives every processed line.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Processor runs a message stream through a machine.
type Processor struct {
	Machine   *enigma.Machine
	Out       io.Writer
	// GroupSize is the number of symbols per output group. Zero means
	// DefaultGroupSize and a negative size disables grouping.
	GroupSize int
	Logger    *slog.Logger
	Recorder  Recorder // optional
}

// Process reads r line by line. The first non-blank line must be a
// settings line. Blank lines are copied through, message lines are
// converted and written in groups. Processing stops at the first error.
func (p *Processor) Process(ctx context.Context, r io.Reader) (err error) {
	if p.Machine == nil {
		return fmt.Errorf("%w: processor has no machine", enigma.ErrConfig)
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	group := p.GroupSize
	if group == 0 {
		group = DefaultGroupSize
	}

	w := bufio.NewWriter(p.Out)
	defer func() {
		if ferr := w.Flush(); err == nil && ferr != nil {
			err = fmt.Errorf("write output: %w", ferr)
		}
	}()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var (
		lineNo     int
		configured bool
		current    string
	)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lineNo++
		line := sc.Text()
		e := Entry{Line: lineNo, Input: line}

		switch {
		case strings.TrimSpace(line) == "":
			e.Kind = KindBlank
			if _, err := w.WriteString("\n"); err != nil {
				return fmt.Errorf("write output: %w", err)
			}

		case IsSettingsLine(line):
			s, err := ParseSettings(line, p.Machine)
			if err != nil {
				return fmt.Errorf("line %d: %w", lineNo, err)
			}
			if err := Apply(p.Machine, s); err != nil {
				return fmt.Errorf("line %d: %w", lineNo, err)
			}
			configured = true
			current = s.String()
			e.Kind = KindSettings
			logger.Debug("settings applied",
				"line", lineNo,
				"rotors", strings.Join(s.Rotors, " "),
				"positions", p.Machine.Settings(),
				"plugboard", s.Plugboard,
			)

		default:
			if !configured {
				return fmt.Errorf("line %d: %w: first line must be settings", lineNo, enigma.ErrSettings)
			}
			before := p.Machine.Settings()
			out, err := p.Machine.ConvertString(line)
			if err != nil {
				return fmt.Errorf("line %d: %w", lineNo, err)
			}
			e.Kind = KindMessage
			e.Output = FormatGroups(out, group)
			if _, err := w.WriteString(e.Output + "\n"); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			logger.Debug("line converted",
				"line", lineNo,
				"symbols", len(out),
				"positions_before", before,
				"positions_after", p.Machine.Settings(),
			)
		}

		e.Settings = current
		e.Positions = p.Machine.Settings()
		if p.Recorder != nil {
			if err := p.Recorder.Record(ctx, e); err != nil {
				return fmt.Errorf("record line %d: %w", lineNo, err)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if !configured {
		return fmt.Errorf("%w: first line must be settings", enigma.ErrSettings)
	}
	return nil
}

// FormatGroups splits msg into groups of n symbols separated by single
// spaces. The last group may be shorter.
func FormatGroups(msg string, n int) string {
	if n <= 0 {
		return msg
	}
	var b strings.Builder
	count := 0
	for _, r := range msg {
		if count == n {
			b.WriteByte(' ')
			count = 0
		}
		b.WriteRune(r)
		count++
	}
	return b.String()
}

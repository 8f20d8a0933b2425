package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"clicker/internal/client"
	"clicker/internal/domain"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Submitter sends a finished round to the leaderboard
type Submitter interface {
	Submit(ctx context.Context, playerName string, score int64, country string) (*domain.LeaderboardEntry, error)
}

// Control bytes delivered by a raw terminal
const (
	keyCtrlC = 0x03
	keyCtrlD = 0x04
)

func newPlayCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play a round: h = Hare, k = Krishna, s = submit, q = quit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.name == "" {
				return errors.New("--name is required (env: CLICKER_NAME)")
			}

			in := cmd.InOrStdin()
			eol := "\n"
			if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
				oldState, err := term.MakeRaw(int(f.Fd()))
				if err != nil {
					return fmt.Errorf("failed to enter raw mode: %w", err)
				}
				defer func() { _ = term.Restore(int(f.Fd()), oldState) }()
				// Raw mode disables output post-processing
				eol = "\r\n"
			}

			s := &session{
				submitter: opts.client(),
				name:      opts.name,
				country:   opts.country,
				out:       cmd.OutOrStdout(),
				eol:       eol,
				state:     domain.NewClickState(),
			}
			return s.run(cmd.Context(), in)
		},
	}
}

type session struct {
	submitter Submitter
	name      string
	country   string
	out       io.Writer
	eol       string
	state     *domain.ClickState
}

func (s *session) println(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format+s.eol, args...)
}

// run reads key presses until q, Ctrl+C, Ctrl+D or end of input
func (s *session) run(ctx context.Context, in io.Reader) error {
	r := bufio.NewReader(in)

	s.println("🙏 Hare Krishna. h = Hare, k = Krishna, s = submit, q = quit")
	s.status()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		b, err := r.ReadByte()
		if errors.Is(err, io.EOF) {
			s.goodbye()
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		switch b {
		case 'q', 'Q', keyCtrlC, keyCtrlD:
			s.goodbye()
			return nil
		case 's', 'S':
			s.submit(ctx)
		default:
			symbol, err := domain.ParseSymbol(string(b))
			if err != nil {
				continue // whitespace, newlines and unbound keys
			}
			s.click(symbol)
		}
	}
}

func (s *session) click(symbol domain.Symbol) {
	res := s.state.Click(symbol)
	switch {
	case res.MalaCompleted:
		s.println("📿 Mala completed! Malas: %d", s.state.MalaCount())
	case !res.Correct:
		s.println("❌ Out of order")
	}
	s.status()
}

func (s *session) status() {
	s.println("Score: %d  Next: %s", s.state.Score, symbolLabel(s.state.Expecting))
}

func (s *session) submit(ctx context.Context) {
	if s.state.Score == 0 {
		s.println("Complete at least one Hare Krishna pair first")
		return
	}

	submitted := s.state.Score
	entry, err := s.submitter.Submit(ctx, s.name, submitted, s.country)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Retryable() {
			s.println("Server busy, press s to try again")
			return
		}
		s.println("Submit failed: %v", err)
		return
	}

	if entry.Score > submitted {
		s.println("📤 Submitted %d. Your best stays %d.", submitted, entry.Score)
	} else {
		s.println("📤 Submitted %d. New best!", submitted)
	}
	s.state.Reset()
	s.status()
}

func (s *session) goodbye() {
	if s.state.Score > 0 {
		s.println("Unsubmitted score: %d", s.state.Score)
	}
	s.println("Hare Krishna!")
}

func symbolLabel(symbol domain.Symbol) string {
	if symbol == domain.Krishna {
		return "Krishna"
	}
	return "Hare"
}

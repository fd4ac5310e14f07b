package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dusk-indust/agentroom/internal/llm"
	"github.com/dusk-indust/agentroom/internal/panel"
	"github.com/dusk-indust/agentroom/internal/session"
	"github.com/dusk-indust/agentroom/internal/transcript"
	"github.com/spf13/cobra"
)

// roundFlags configures a one-shot round.
type roundFlags struct {
	SessionID string
	Mode      string
	Agents    []string
	Stream    bool
}

func newRoundCmd(a *app) *cobra.Command {
	var flags roundFlags
	cmd := &cobra.Command{
		Use:   "round [prompt]",
		Short: "Run one panel round and print the transcript",
		Long: `Runs a single round against a session and prints the new entries.
Without --session a new session is created; its id is printed first so the
discussion can be continued.

Example:
  agentroom round --agents BioExpert,Reviewer --mode evidence "Phage therapy for acne"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := buildServices(a.cfg, llm.OSEnv(), a.logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			var enabled []string
			if cmd.Flags().Changed("agents") {
				enabled = append([]string{}, flags.Agents...)
			}
			if flags.Mode == "" {
				flags.Mode = a.cfg.Panel.DefaultMode
			}
			return runOneRound(cmd.Context(), a.stdout, svc.sessions, flags, enabled, strings.Join(args, " "))
		},
	}
	cmd.Flags().StringVar(&flags.SessionID, "session", "", "continue an existing session")
	cmd.Flags().StringVar(&flags.Mode, "mode", "", "FREESTYLE or EVIDENCE (default from config)")
	cmd.Flags().StringSliceVar(&flags.Agents, "agents", nil, "experts to seat after the Moderator (default: all)")
	cmd.Flags().BoolVar(&flags.Stream, "stream", false, "print each turn as it happens")
	return cmd
}

func runOneRound(ctx context.Context, out io.Writer, sessions *session.Service, flags roundFlags, enabled []string, prompt string) error {
	id := flags.SessionID
	if id == "" {
		newID, _, err := sessions.NewSession(ctx)
		if err != nil {
			return err
		}
		id = newID
	}
	fmt.Fprintf(out, "session: %s\n\n", id)

	before, err := sessions.History(ctx, id)
	if err != nil {
		return err
	}

	req := session.RoundRequest{
		SessionID: id,
		Prompt:    prompt,
		Mode:      flags.Mode,
		Enabled:   enabled,
	}
	if flags.Stream {
		req.OnTurn = func(ev panel.TurnEvent) {
			printEntry(out, transcript.Entry{Role: transcript.RoleAssistant, Name: ev.Speaker, Content: ev.Content})
		}
	}

	full, err := sessions.RunRound(ctx, req)
	if err != nil {
		return err
	}
	if flags.Stream {
		return nil
	}

	// Skip the prior history and the echoed prompt.
	for _, e := range full[len(before)+1:] {
		printEntry(out, e)
	}
	return nil
}

func printEntry(out io.Writer, e transcript.Entry) {
	fmt.Fprintf(out, "[%s]\n%s\n\n", e.Speaker(), strings.TrimSpace(e.Content))
}

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"jalrakshak-ai-api/internal/application/conversation"
	"jalrakshak-ai-api/internal/infrastructure/speech"
	"jalrakshak-ai-api/internal/wire"
)

const cliClientID = "chat-cli"

func newReplCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Chat interactively; every input line is sent as one message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)

			if root.sqlite != "" {
				db, cleanupDB, err := wire.InitializeDatabase(ctx, cfg)
				if err != nil {
					return fmt.Errorf("open transcript store: %w", err)
				}
				err = db.AutoMigrate(ctx)
				cleanupDB()
				if err != nil {
					return err
				}
			}

			svc, cleanup, err := wire.InitializeConversationService(ctx, cfg)
			if err != nil {
				return fmt.Errorf("initialize conversation service: %w", err)
			}
			defer cleanup()

			conv, err := svc.Create(ctx, cliClientID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			r := newRenderer(root.plain)
			fmt.Fprintf(out, "conversation %s (Ctrl-D to quit)\n> ", conv.ID)

			err = svc.Listen(ctx, conv.ID, speech.NewLineListener(cmd.InOrStdin()), func(res *conversation.SendResult, err error) {
				printResult(out, r, res, err)
				fmt.Fprint(out, "> ")
			})
			fmt.Fprintln(out)
			if errors.Is(err, ctx.Err()) {
				return nil
			}
			return err
		},
	}
}

func printResult(w io.Writer, r *renderer, res *conversation.SendResult, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	fmt.Fprint(w, r.render(res.AssistantTurn.Content))
}

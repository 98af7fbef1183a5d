package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"jalrakshak-ai-api/internal/application/chatadapter"
	"jalrakshak-ai-api/internal/application/conversation"
)

func newSendCommand(root *rootOptions) *cobra.Command {
	var (
		text      string
		imagePath string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one message (and optionally an image) and print the reply",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(text) == "" && imagePath == "" {
				return fmt.Errorf("nothing to send: pass --text, --image or both")
			}

			cfg, err := root.load()
			if err != nil {
				return err
			}

			req := chatadapter.Request{PromptText: text}
			if imagePath != "" {
				data, err := os.ReadFile(imagePath)
				if err != nil {
					return fmt.Errorf("read image: %w", err)
				}
				req.Attachment = chatadapter.NewAttachment(data, "")
			}

			adapter := chatadapter.NewAdapter(&cfg.Chat, &cfg.Attachment)
			out := adapter.Send(commandContext(cmd), req)

			r := newRenderer(root.plain)
			fmt.Fprint(cmd.OutOrStdout(), r.render(conversation.ReplyText(out)))
			if !out.IsSuccess() {
				return fmt.Errorf("chat request failed (%s)", out.Kind())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "message text")
	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "path to a JPEG, PNG or WebP image")

	return cmd
}

// commandContext 返回非空上下文
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

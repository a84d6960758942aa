package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xiaot623/gogo/alertlink/internal/chatclient"
)

func newChatCommand() *cobra.Command {
	var addr, apiKey, sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to a running server over the websocket channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Connecting to %s...\n", addr)

			client, err := chatclient.Dial(addr)
			if err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}
			defer client.Close()

			if err := client.Hello(sessionID, apiKey); err != nil {
				return err
			}

			fmt.Fprintf(out, "Session established: %s\n", client.SessionID())
			fmt.Fprintln(out, "Send /start to link your account. Commands: /quit to exit")

			closed := make(chan error, 1)
			go func() {
				closed <- client.ReadMessages(func(ev chatclient.Event) {
					if ev.Error != nil {
						fmt.Fprintf(out, "\n[error] %s: %s\n> ", ev.Error.Code, ev.Error.Message)
						return
					}
					fmt.Fprintf(out, "\n%s\n> ", ev.Text)
				})
			}()

			lines := make(chan string)
			go func() {
				defer close(lines)
				scanner := bufio.NewScanner(cmd.InOrStdin())
				for scanner.Scan() {
					lines <- scanner.Text()
				}
			}()

			fmt.Fprint(out, "> ")
			for {
				select {
				case <-cmd.Context().Done():
					fmt.Fprintln(out, "\nInterrupted")
					return nil
				case err := <-closed:
					if err != nil {
						return fmt.Errorf("connection closed: %w", err)
					}
					return nil
				case line, ok := <-lines:
					if !ok {
						return nil
					}
					input := strings.TrimSpace(line)
					if input == "" {
						fmt.Fprint(out, "> ")
						continue
					}
					if input == "/quit" {
						fmt.Fprintln(out, "Bye!")
						return nil
					}
					if err := client.SendText(input); err != nil {
						return fmt.Errorf("send: %w", err)
					}
				}
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "ws://localhost:8090/ws", "WebSocket server address")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key for the websocket channel")
	cmd.Flags().StringVar(&sessionID, "session", "", "Resume a session id previously issued by the server")
	return cmd
}

// Command agentchat is a terminal client for the delivery agent WebSocket chat.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	addr      string
	userID    string
	sessionID string
	timeout   time.Duration
	showTools bool
)

// rootCmd starts an interactive chat.
var rootCmd = &cobra.Command{
	Use:   "agentchat",
	Short: "Chat with the delivery agent",
	Long: `agentchat connects to the delivery agent WebSocket endpoint and sends each
line typed as a message. Type /quit to exit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := connect(cmd)
		if err != nil {
			return err
		}
		defer client.Close()
		return chat(client, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

var sendCmd = &cobra.Command{
	Use:   "send [message]",
	Short: "Send one message and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := connect(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		reply, err := client.Send(strings.Join(args, " "))
		if err != nil {
			return err
		}
		printReply(cmd.OutOrStdout(), reply)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "ws://localhost:8080/agent/ws", "WebSocket server address")
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "User id for new sessions")
	rootCmd.PersistentFlags().StringVarP(&sessionID, "session", "s", "", "Continue an existing session")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 60*time.Second, "Reply timeout")
	rootCmd.PersistentFlags().BoolVarP(&showTools, "tools", "t", false, "Show tool calls with each reply")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func connect(cmd *cobra.Command) (*Client, error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "Connecting to %s...\n", addr)
	return NewClient(addr, userID, sessionID, timeout)
}

func chat(client *Client, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Type a message and press Enter to send.")
	fmt.Fprintln(out, "Commands: /quit to exit, /session to show the session id")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "/quit":
			fmt.Fprintln(out, "Bye!")
			return nil
		case "/session":
			fmt.Fprintf(out, "session: %s\n", client.SessionID())
			continue
		}

		reply, err := client.Send(input)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			if reply == nil {
				return err
			}
			continue
		}
		printReply(out, reply)
	}
}

func printReply(out io.Writer, reply *Reply) {
	if showTools {
		for _, call := range reply.ToolCalls {
			fmt.Fprintf(out, "[tool %s %v]\n", call.ToolName, call.Arguments)
		}
	}
	fmt.Fprintln(out, reply.Response)
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/genui/stream"
)

func newRunCmd() *cobra.Command {
	var (
		providerName string
		modelName    string
		raw          bool
	)

	cmd := &cobra.Command{
		Use:   "run <agent> <prompt>",
		Short: "Run an agent once and print the streamed report",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, _, err := loadApp(cmd)
			if err != nil {
				return err
			}

			req := stream.Request{
				Provider: providerName,
				Model:    modelName,
				Messages: []stream.Message{{Role: "user", Content: strings.Join(args[1:], " ")}},
			}

			out := cmd.OutOrStdout()
			return app.Stream(cmd.Context(), args[0], req, func(chunk []byte) error {
				if raw {
					_, err := out.Write(stream.EncodeSSE(chunk))
					return err
				}
				return printEvent(out, chunk)
			})
		},
	}

	cmd.Flags().StringVar(&providerName, "provider", "", "model provider (default from config)")
	cmd.Flags().StringVar(&modelName, "model", "", "model name (default from config)")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the raw SSE stream")

	return cmd
}

// printEvent renders one envelope for a terminal.
func printEvent(w io.Writer, chunk []byte) error {
	var ev stream.StreamEvent
	if err := json.Unmarshal(chunk, &ev); err != nil {
		return err
	}

	var err error
	switch ev.Event.Type {
	case stream.EventChatToken:
		_, err = io.WriteString(w, ev.Event.Content)
	case stream.EventToolStart:
		_, err = fmt.Fprintf(w, "[tool %s]\n", ev.Event.ToolName)
	case stream.EventError:
		_, err = fmt.Fprintf(w, "\n[error] %s\n", ev.Event.Content)
	case stream.EventChatEnd:
		_, err = io.WriteString(w, "\n")
	}
	return err
}

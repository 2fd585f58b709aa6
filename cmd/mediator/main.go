package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mediator",
	Short: "DIDComm v2 mediator",
	Long: `mediator relays encrypted DIDComm v2 messages between agents: it
authenticates callers, unpacks and dispatches inbound envelopes, queues
results per recipient, and pushes them to live-connected subscribers.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	// Commands are registered in their own files:
	// - serve.go: serveCmd
}

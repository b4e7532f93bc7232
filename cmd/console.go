package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"relaybot/pkg/bus"
	"relaybot/pkg/channel"
	consolechannel "relaybot/pkg/channel/console"
	"relaybot/pkg/config"
	"relaybot/pkg/gateway"
	consoleui "relaybot/pkg/ui/console"

	"github.com/spf13/cobra"
)

const defaultConsoleLogFile = "relaybot-console.log"

var consoleLogFile string

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Try relay rules in a local terminal chat",
	Long:  "Runs relaybot against local console rooms so forwarding, syncing, autoreplies and commands can be tried without a chat network.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = args

		cfg, log, err := loadRuntime("cmd.console", func(logging *config.LoggingConfig) {
			if consoleLogFile != "" {
				logging.File = consoleLogFile
			}
		})
		if err != nil {
			fmt.Println(err)
			return
		}

		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		messages := bus.NewMessageBus()
		defer messages.Close()

		adapter, err := consolechannel.NewAdapter(cfg.Channels.Console, messages, log)
		if err != nil {
			fmt.Printf("failed to configure console: %v\n", err)
			return
		}

		svc, err := gateway.NewService(cfg, []channel.Adapter{adapter}, messages, log, gateway.WithoutStatusServer())
		if err != nil {
			fmt.Printf("failed to initialize console service: %v\n", err)
			return
		}

		ctx, cancel := context.WithCancel(runCtx)
		serviceDone := make(chan error, 1)
		go func() {
			serviceDone <- svc.Run(ctx)
		}()

		uiErr := consoleui.Run(ctx, adapter, messages)
		cancel()
		if err := <-serviceDone; err != nil {
			log.Error("Console service failed", "error", err)
		}
		if uiErr != nil {
			fmt.Printf("console UI failed: %v\n", uiErr)
		}
	},
}

func init() {
	consoleCmd.Flags().StringVar(&consoleLogFile, "log-file", defaultConsoleLogFile, "write logs to this file instead of the terminal")
	rootCmd.AddCommand(consoleCmd)
}

package watch

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muxrpc/muxrpc/cmd/util"
	"github.com/muxrpc/muxrpc/rpc/client"
	"github.com/muxrpc/muxrpc/rpc/proto"
)

var (
	// WatchCmd subscribes to a channel and streams its events to stdout
	WatchCmd = &cobra.Command{
		Use:   "watch [channel]",
		Short: "Subscribe to a channel and print its events",
		Long:  `Subscribe to a channel and print every published event to stdout until interrupted (Ctrl-C).`,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return util.BindCommandFlags(cmd)
		},
		RunE: run,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common connection flags to the watch command
	util.SetupClientFlags(WatchCmd)
}

func run(_ *cobra.Command, args []string) error {
	channel := args[0]

	rpcClient, err := util.NewClient()
	if err != nil {
		return err
	}
	defer rpcClient.Close()

	sub, err := client.Subscribe[proto.ChannelEvent](rpcClient, proto.Watch{Channel: channel})
	if err != nil {
		return err
	}
	defer sub.Close()

	// End the subscription on Ctrl-C; Recv then returns ErrSubscriptionClosed
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		sub.Close()
	}()

	fmt.Printf("watching %s...\n", channel)

	for {
		event, err := sub.Recv()

		var mismatch *client.ProtocolMismatchError
		switch {
		case errors.Is(err, client.ErrSubscriptionClosed):
			return nil
		case errors.As(err, &mismatch):
			// A single malformed event does not end the sequence
			fmt.Fprintf(os.Stderr, "skipping malformed event: %v\n", mismatch)
			continue
		case err != nil:
			return err
		}

		fmt.Printf("%s #%d: %s\n", event.Channel, event.Seq, string(event.Data))
	}
}

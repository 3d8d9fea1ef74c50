package call

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/muxrpc/muxrpc/rpc/client"
	"github.com/muxrpc/muxrpc/rpc/proto"
)

var (
	authCmd = &cobra.Command{
		Use:   "auth [user-id] [token]",
		Short: "Authenticate against the server",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid user id %s: %v", args[0], err)
			}

			resp, err := client.Request[proto.AuthResponse](rpcClient, proto.Auth{
				UserID:      int32(userID),
				AccessToken: args[1],
			})
			if err != nil {
				return err
			}

			if resp.CredentialsValid {
				fmt.Println("credentials accepted")
			} else {
				fmt.Println("credentials rejected")
			}
			return nil
		},
	}

	pingCmd = &cobra.Command{
		Use:   "ping",
		Short: "Measure the round trip time to the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			if _, err := client.Request[proto.Pong](rpcClient, proto.Ping{}); err != nil {
				return err
			}
			fmt.Printf("pong (%s)\n", time.Since(start))
			return nil
		},
	}

	echoCmd = &cobra.Command{
		Use:   "echo [data]",
		Short: "Send data to the server and print what comes back",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Request[proto.EchoResponse](rpcClient, proto.Echo{Data: []byte(args[0])})
			if err != nil {
				return err
			}
			fmt.Println(string(resp.Data))
			return nil
		},
	}

	publishCmd = &cobra.Command{
		Use:   "publish [channel] [data]",
		Short: "Publish data to a channel (fire-and-forget)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcClient.Send(proto.Publish{Channel: args[0], Data: []byte(args[1])}); err != nil {
				return err
			}
			fmt.Printf("published to %s\n", args[0])
			return nil
		},
	}
)

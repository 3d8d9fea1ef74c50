package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muxrpc/muxrpc/cmd/call"
	"github.com/muxrpc/muxrpc/cmd/perf"
	"github.com/muxrpc/muxrpc/cmd/serve"
	"github.com/muxrpc/muxrpc/cmd/util"
	"github.com/muxrpc/muxrpc/cmd/watch"
)

const (
	Version = "0.3.1"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "muxrpc",
		Short: "multiplexed RPC over a single connection",
		Long: fmt.Sprintf(`muxrpc (v%s)

A client-side RPC multiplexer written in Go. Many concurrent requests
and subscriptions share one duplex connection; responses are routed
back to their callers by message id.`, Version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of muxrpc",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("muxrpc v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(call.CallCmd)
	RootCmd.AddCommand(watch.WatchCmd)
	RootCmd.AddCommand(perf.PerfCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("serializer to use (json, gob, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, unix, ws)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

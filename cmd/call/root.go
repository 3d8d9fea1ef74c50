package call

import (
	"github.com/spf13/cobra"

	"github.com/muxrpc/muxrpc/cmd/util"
	"github.com/muxrpc/muxrpc/rpc/client"
)

var (
	rpcClient *client.Client

	// CallCmd represents the call command group
	CallCmd = &cobra.Command{
		Use:               "call",
		Short:             "Issue single requests against a muxrpc server",
		PersistentPreRunE: setupClient,
		PersistentPostRun: teardownClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common connection flags to the call command
	util.SetupClientFlags(CallCmd)

	// Add subcommands
	CallCmd.AddCommand(authCmd)
	CallCmd.AddCommand(pingCmd)
	CallCmd.AddCommand(echoCmd)
	CallCmd.AddCommand(publishCmd)
}

// setupClient dials the server and starts the multiplexer client
func setupClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var err error
	rpcClient, err = util.NewClient()
	return err
}

// teardownClient closes the connection after the subcommand ran
func teardownClient(_ *cobra.Command, _ []string) {
	if rpcClient != nil {
		_ = rpcClient.Close()
	}
}

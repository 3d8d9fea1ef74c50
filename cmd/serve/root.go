package serve

import (
	cmdUtil "github.com/muxrpc/muxrpc/cmd/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/muxrpc/muxrpc/rpc/common"
	"github.com/muxrpc/muxrpc/rpc/server"
)

var (
	serveCmdConfig = &common.ServerConfig{}

	// ServeCmd starts the demo broker
	ServeCmd = &cobra.Command{
		Use:     "serve",
		Short:   "Start the muxrpc broker",
		Long:    `Start the muxrpc message broker with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is MUXRPC_<flag> (e.g. MUXRPC_ENDPOINT=0.0.0.0:9090)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the broker will listen (e.g. 0.0.0.0:8080, /tmp/muxrpc.sock, ...)"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The handshake timeout in seconds for transports that perform one (0 disables the timeout)"))

	key = "write-buffer"
	ServeCmd.PersistentFlags().Int(key, 512, cmdUtil.WrapString("The size of the write buffer for the transport (in KB)"))

	key = "read-buffer"
	ServeCmd.PersistentFlags().Int(key, 512, cmdUtil.WrapString("The size of the read buffer for the transport (in KB)"))

	key = "tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY for accepted connections (only for tcp)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and
// environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.TimeoutSecond = viper.GetInt("timeout")
	serveCmdConfig.WriteBufferSize = viper.GetInt("write-buffer") * 1024
	serveCmdConfig.ReadBufferSize = viper.GetInt("read-buffer") * 1024
	serveCmdConfig.TCPNoDelay = viper.GetBool("tcp-nodelay")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	return nil
}

// run starts the broker on the configured transport
func run(_ *cobra.Command, _ []string) error {
	common.InitLoggers(serveCmdConfig.LogLevel)

	t, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}

	return server.New().Serve(t, *serveCmdConfig)
}

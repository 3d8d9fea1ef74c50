package util

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/muxrpc/muxrpc/rpc/client"
	"github.com/muxrpc/muxrpc/rpc/common"
	"github.com/muxrpc/muxrpc/rpc/serializer"
	"github.com/muxrpc/muxrpc/rpc/transport"
	"github.com/muxrpc/muxrpc/rpc/transport/tcp"
	"github.com/muxrpc/muxrpc/rpc/transport/unix"
	"github.com/muxrpc/muxrpc/rpc/transport/ws"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupClientFlags adds common connection flags to a command
func SetupClientFlags(cmd *cobra.Command) {
	key := "timeout"
	cmd.PersistentFlags().Int(key, 10, WrapString("The dial timeout in seconds of the client"))

	key = "endpoint"
	cmd.PersistentFlags().String(key, "localhost:8080", WrapString("The address of the server (host:port for tcp, a socket path for unix, a ws:// URL for ws)"))

	key = "sub-buffer"
	cmd.PersistentFlags().Int(key, common.DefaultSubscriptionBuffer, WrapString("The event buffer capacity of a single subscription"))

	key = "write-buffer"
	cmd.PersistentFlags().Int(key, 512, WrapString("The size of the write buffer for the transport (in KB)"))

	key = "read-buffer"
	cmd.PersistentFlags().Int(key, 512, WrapString("The size of the read buffer for the transport (in KB)"))

	key = "tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether to enable TCP_NODELAY for the transport (only for tcp)"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "info", WrapString("The level at which logs will be output (debug, info, warn, error)"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("muxrpc")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() *common.ClientConfig {
	return &common.ClientConfig{
		Endpoint:           viper.GetString("endpoint"),
		TimeoutSecond:      viper.GetInt("timeout"),
		SubscriptionBuffer: viper.GetInt("sub-buffer"),
		TCPNoDelay:         viper.GetBool("tcp-nodelay"),
		ReadBufferSize:     viper.GetInt("read-buffer") * 1024,
		WriteBufferSize:    viper.GetInt("write-buffer") * 1024,
		LogLevel:           viper.GetString("log-level"),
	}
}

// GetSerializer creates a serializer based on configuration
func GetSerializer() (serializer.ISerializer, error) {
	return serializer.ForName(viper.GetString("serializer"))
}

// ConnectStream dials the configured endpoint with the configured transport
func ConnectStream(config common.ClientConfig, s serializer.ISerializer) (transport.IMessageStream, error) {
	switch viper.GetString("transport") {
	case "tcp":
		return tcp.Connect(config, s)
	case "unix":
		return unix.Connect(config, s)
	case "ws":
		return ws.Connect(config, s)
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// NewClient dials the configured endpoint and starts a multiplexer client
// on the resulting stream
func NewClient() (*client.Client, error) {
	config := GetClientConfig()
	common.InitLoggers(config.LogLevel)

	s, err := GetSerializer()
	if err != nil {
		return nil, err
	}

	stream, err := ConnectStream(*config, s)
	if err != nil {
		return nil, err
	}

	return client.New(stream, *config), nil
}

// GetServerTransport creates a server transport based on configuration
func GetServerTransport() (transport.IServerTransport, error) {
	s, err := GetSerializer()
	if err != nil {
		return nil, err
	}

	switch viper.GetString("transport") {
	case "tcp":
		return tcp.NewServerTransport(s), nil
	case "unix":
		return unix.NewServerTransport(s), nil
	case "ws":
		return ws.NewServerTransport(s), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

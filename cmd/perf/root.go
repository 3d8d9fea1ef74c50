package perf

import (
	"fmt"
	"log"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/muxrpc/muxrpc/cmd/util"
	rpcclient "github.com/muxrpc/muxrpc/rpc/client"
	"github.com/muxrpc/muxrpc/rpc/proto"
)

var (
	// PerfCmd benchmarks a muxrpc server over a single multiplexed connection
	PerfCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for muxrpc servers",
		Long:    `Benchmark a muxrpc server. All workers share one multiplexed connection, so the numbers show how well concurrent requests interleave on a single stream.`,
		PreRunE: processPerfConfig,
		RunE:    run,
	}

	perfNumThreads  = 10
	perfPayloadSize = 1024
	perfSkip        = make([]string, 0)

	rpcClient *rpcclient.Client
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common connection flags
	util.SetupClientFlags(PerfCmd)

	// add flags
	key := "skip"
	PerfCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. ping,publish)"))
	key = "threads"
	PerfCmd.Flags().Int(key, 10, util.WrapString("Number of concurrent workers sharing the connection"))
	key = "payload-size"
	PerfCmd.Flags().Int(key, 1024, util.WrapString("The size of the echo payload (in bytes)"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfNumThreads = viper.GetInt("threads")
	perfPayloadSize = viper.GetInt("payload-size")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func run(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for muxrpc servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Printf("Payload: %d bytes\n", perfPayloadSize)
	fmt.Println()

	// All benchmarks run over the same connection
	var err error
	rpcClient, err = util.NewClient()
	if err != nil {
		return err
	}
	defer rpcClient.Close()

	fmt.Println("starting benchmarks...")

	pingTimer := metrics.NewTimer()
	pingResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("ping") {
			return
		}

		b.SetParallelism(perfNumThreads)
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				start := time.Now()
				_, err := rpcclient.Request[proto.Pong](rpcClient, proto.Ping{})
				if err != nil {
					log.Printf("(ping) - request error: %v\n", err)
					continue
				}
				pingTimer.UpdateSince(start)
			}
		})
	})

	printResult("ping", pingResult, pingTimer)

	echoTimer := metrics.NewTimer()
	echoResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("echo") {
			return
		}

		payload := make([]byte, perfPayloadSize)

		b.SetParallelism(perfNumThreads)
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				start := time.Now()
				_, err := rpcclient.Request[proto.EchoResponse](rpcClient, proto.Echo{Data: payload})
				if err != nil {
					log.Printf("(echo) - request error: %v\n", err)
					continue
				}
				echoTimer.UpdateSince(start)
			}
		})
	})

	printResult("echo", echoResult, echoTimer)

	publishTimer := metrics.NewTimer()
	publishResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("publish") {
			return
		}

		payload := make([]byte, perfPayloadSize)

		b.SetParallelism(perfNumThreads)
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				start := time.Now()
				err := rpcClient.Send(proto.Publish{Channel: "__perf", Data: payload})
				if err != nil {
					log.Printf("(publish) - send error: %v\n", err)
					continue
				}
				publishTimer.UpdateSince(start)
			}
		})
	})

	printResult("publish", publishResult, publishTimer)

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// printResult prints the result of a benchmark test in a formatted way,
// including the latency distribution of the timer
func printResult(test string, result testing.BenchmarkResult, timer metrics.Timer) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)

	// Latency percentiles as seen by the individual worker
	ps := timer.Percentiles([]float64{0.5, 0.9, 0.99})
	fmt.Printf("%-20slatency mean=%s p50=%s p90=%s p99=%s\n",
		"",
		time.Duration(timer.Mean()),
		time.Duration(ps[0]),
		time.Duration(ps[1]),
		time.Duration(ps[2]),
	)
}

// Command bigclean generates massive noisy event data and cleans it at
// scale: generate writes dirty CSV partitions, clean validates, dedupes,
// and aggregates them into a curated store plus a quality report, and
// run-all chains both.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"bigclean/internal/metrics"
	"bigclean/internal/metrics/prompush"

	// Register all built-in storage backends with the storage factory.
	_ "bigclean/internal/storage/all"
)

func main() {
	var (
		metricsBackend string
		pushGatewayURL string
	)

	rootCmd := &cobra.Command{
		Use:           "bigclean",
		Short:         "Generate massive noisy event data and clean it at scale",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			initMetrics(metricsBackend, pushGatewayURL)
		},
	}

	rootCmd.PersistentFlags().StringVar(&metricsBackend, "metrics-backend", "none", "metrics backend to use (pushgateway, none)")
	rootCmd.PersistentFlags().StringVar(&pushGatewayURL, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")

	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newCleanCommand())
	rootCmd.AddCommand(newRunAllCommand())

	err := rootCmd.Execute()
	if ferr := metrics.Flush(); ferr != nil {
		log.Printf("metrics: flush error: %v", ferr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// initMetrics selects the metrics backend: flag, then env, then the no-op
// default. A backend that fails to initialize degrades to no-op rather
// than failing the run.
func initMetrics(backendName, gatewayURL string) {
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		if gatewayURL == "" {
			gatewayURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gatewayURL == "" {
			gatewayURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend("bigclean", gatewayURL)
		if err != nil {
			log.Printf("metrics: failed to init pushgateway backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: backend=pushgateway url=%s", gatewayURL)
		metrics.SetBackend(b)

	case "", "none":
		// metrics disabled; nop backend remains

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/atikulmunna/dnslog/internal/aggregator"
	"github.com/atikulmunna/dnslog/internal/converter"
	"github.com/atikulmunna/dnslog/internal/parser"
	"github.com/atikulmunna/dnslog/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the converter as a web page",
	Long: `Start a local web UI: paste log lines, get sentences, filter them,
download the result and browse the activity chart.

Examples:
  dnslog serve
  dnslog serve --port 9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("port", "p", "8080", "port to listen on")
	_ = viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
}

func runServe(cmd *cobra.Command, args []string) error {
	themes, err := openThemeStore()
	if err != nil {
		return err
	}

	conv := converter.New(parser.NewFormatter(), aggregator.New())
	srv := server.New(conv, themes, viper.GetString("port"))

	fmt.Fprintf(os.Stderr, "dnslog serving on http://localhost:%s\n", viper.GetString("port"))
	if err := srv.Start(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

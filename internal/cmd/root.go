package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/atikulmunna/dnslog/internal/theme"
)

var cfgFile string

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "dnslog",
	Short: "dnslog — DNS change log narrator",
	Long: `dnslog turns tab-separated DNS change log lines into readable sentences.
Each ADD or DEL entry becomes one line describing who changed which record,
with an hourly or daily activity chart and a small web UI.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default: $HOME/.dnslog.yaml)")
	flags.StringP("output", "o", "text", "output format: text, plain, json")
	flags.String("theme-file", "", "theme state file (default: $HOME/.dnslog-state.json)")
	flags.BoolP("verbose", "v", false, "log why lines were skipped")

	_ = viper.BindPFlag("output", flags.Lookup("output"))
	_ = viper.BindPFlag("theme_file", flags.Lookup("theme-file"))
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".dnslog")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("DNSLOG")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

// openThemeStore loads the theme state file named by config.
func openThemeStore() (*theme.Store, error) {
	path := viper.GetString("theme_file")
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locate home directory: %w", err)
		}
		path = filepath.Join(home, ".dnslog-state.json")
	}
	return theme.NewStore(path, nil)
}

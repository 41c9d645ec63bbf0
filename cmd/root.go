package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pokecounter/pokecounter/internal/utils"
	"github.com/pokecounter/pokecounter/pkg/whttp"
	"github.com/spf13/cobra"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `
	 ___       _                              _
	| _ \___  | |_____ __ ___ _  _ _ _  _ _| |_ ___ _ _
	|  _/ _ \ | / / -_) _/ _ \ || | ' \| ' \  _/ -_) '_|
	|_| \___/ |_\_\___\__\___/\_,_|_||_|_||_\__\___|_|

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pokecounter",
	Short: "Count your shiny hunts.",
	Long: LOGO + `pokecounter tracks shiny hunts: one counter per Pokémon, bumped for every
encounter or reset, with the method and game you are hunting in.

Run 'pokecounter web' for the web interface or use the hunt commands directly.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		proxy, _ := cmd.Flags().GetString("proxy")
		if proxy == "" {
			return nil
		}
		return whttp.SetupProxy(proxy)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pokecounter.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Set default values for all keys
	viper.SetDefault("backend", "sqlite")
	viper.SetDefault("sqlite.path", "")
	viper.SetDefault("supabase.url", "")
	viper.SetDefault("supabase.anon_key", "")
	viper.SetDefault("supabase.table", "pokemon_counters")
	viper.SetDefault("supabase.email", "")
	viper.SetDefault("supabase.password", "")
	viper.SetDefault("server.bind", ":9999")
	viper.SetDefault("server.username", "")
	viper.SetDefault("server.password", "")
	viper.SetDefault("server.site_url", "")
	viper.SetDefault("names.file", "")
	viper.SetDefault("sprites.enabled", true)
	viper.SetDefault("sprites.base_url", "https://pokeapi.co/api/v2")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".pokecounter")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("pokecounter")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := filepath.Join(home, ".pokecounter.yaml")
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}

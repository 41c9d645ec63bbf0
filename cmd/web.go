package cmd

import (
	"github.com/pokecounter/pokecounter/internal/backend"
	"github.com/pokecounter/pokecounter/internal/server"
	"github.com/pokecounter/pokecounter/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// webCmd represents the web command
var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Start the pokecounter web interface",
	Long:  `Start a web server to view and update your hunts.`,
	Run: func(cmd *cobra.Command, args []string) {
		b, err := backend.Open(backendConfig())
		if err != nil {
			utils.Log.Fatalf("Failed to open backend: %v", err)
		}
		defer b.Close()

		reg, err := loadNames()
		if err != nil {
			utils.Log.Fatalf("Failed to load names: %v", err)
		}

		opts := server.Options{
			Backend:  b,
			Names:    reg,
			Username: viper.GetString("server.username"),
			Password: viper.GetString("server.password"),
			SiteURL:  viper.GetString("server.site_url"),
		}
		// Assigned only when enabled so the interface stays nil otherwise.
		if sc := spriteClient(reg); sc != nil {
			opts.Sprites = sc
		}

		srv := server.New(opts)
		if err := srv.Start(viper.GetString("server.bind")); err != nil {
			utils.Log.Fatalf("Server failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(webCmd)

	webCmd.Flags().StringP("bind", "b", ":9999", "Address to bind the server to")
	webCmd.Flags().StringP("username", "u", "", "Username for basic auth (optional)")
	webCmd.Flags().StringP("password", "p", "", "Password for basic auth (optional)")
	viper.BindPFlag("server.bind", webCmd.Flags().Lookup("bind"))
	viper.BindPFlag("server.username", webCmd.Flags().Lookup("username"))
	viper.BindPFlag("server.password", webCmd.Flags().Lookup("password"))
}

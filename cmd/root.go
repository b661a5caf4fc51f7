package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "attendance-cam",
	Short: "A camera attendance logger based on face recognition",
	Long: `Attendance Cam watches a camera, recognizes faces against a gallery of
reference images and logs the first sighting of every person per day.

Reference images live in the gallery directory: a file directly in the
root is one identity, a sub-directory holds several images of one identity.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ocrprep/internal/config"
)

// store layers flags over the environment over the .env file.
var store = config.NewViper()

var envFile string

var rootCmd = &cobra.Command{
	Use:           "ocrprep",
	Short:         "ocrprep - normalize scanned images for OCR",
	Long:          "ocrprep walks directories of raster images and rewrites the ones an OCR engine would choke on as PNG or TIFF, upright, in RGB, with the target DPI embedded.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file with WORKING_DIR, DIRS_CSV and friends")
	flags.StringSliceP("dir", "d", nil, "root directory to scan (repeatable)")
	flags.StringP("manifest", "m", "", "CSV file listing root directories (overrides DIRS_CSV)")
	flags.BoolP("verbose", "v", false, "print per-root file counts and a summary table")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "console", "log format: console or json")

	bind(flags.Lookup("dir"), config.KeyDirs)
	bind(flags.Lookup("manifest"), config.KeyManifest)
	bind(flags.Lookup("verbose"), config.KeyVerbose)
	bind(flags.Lookup("log-level"), config.KeyLogLevel)
	bind(flags.Lookup("log-format"), config.KeyLogFormat)
}

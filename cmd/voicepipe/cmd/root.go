package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"voicepipe/cmd/voicepipe/cmd/export"
	"voicepipe/cmd/voicepipe/cmd/serve"
	"voicepipe/cmd/voicepipe/cmd/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "voicepipe",
	Short: "Voice note pipeline: transcribe, analyze and sync sales recordings to a CRM",
	Long: `Voice note pipeline for sales teams.
- Recordings are transcribed with a hosted speech-to-text model
- Transcripts are mined for contacts, action items and buying signals
- Confident results are synced into the connected CRM automatically`,
	TraverseChildren: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(export.Cmd)
	rootCmd.AddCommand(version.Cmd)
}

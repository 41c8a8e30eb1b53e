package cli

import (
	"fmt"
	"time"

	"github.com/2002Bishwajeet/ogbanana/internal/client"
	"github.com/2002Bishwajeet/ogbanana/internal/model"
	"github.com/2002Bishwajeet/ogbanana/internal/webclient"
	"github.com/spf13/cobra"
)

func newGenerateCommand() *cobra.Command {
	var (
		flagURL      string
		flagContext  string
		flagUser     string
		flagServer   string
		flagInterval time.Duration
		flagTimeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate metadata and a banner for a URL through a running server",
		Long: `Generate starts an asynchronous execution on the server, polls it until it
finishes and prints the result as JSON. Status changes go to stderr.

Examples:
  ogbanana generate --url https://example.com --user u1
  ogbanana generate --url https://example.com --user u1 --context "bakery, warm tones"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			wc, err := webclient.NewWebClient(webclient.DefaultConfig(), nil)
			if err != nil {
				return err
			}
			defer wc.Close()

			c := client.New(flagServer, flagUser, wc, nil)
			last := model.ExecutionStatus("")
			opts := client.PollOptions{
				Interval: flagInterval,
				Timeout:  flagTimeout,
				OnStatusChange: func(s model.ExecutionStatus) {
					if s != last {
						fmt.Fprintf(cmd.ErrOrStderr(), "status: %s\n", s)
						last = s
					}
				},
			}

			res, err := c.Generate(cmd.Context(), flagURL, flagContext, opts)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&flagURL, "url", "", "Page to generate metadata for (required)")
	cmd.Flags().StringVar(&flagContext, "context", "", "Optional extra guidance for the model")
	cmd.Flags().StringVar(&flagUser, "user", "", "User id sent as x-appwrite-user-id (required)")
	cmd.Flags().StringVar(&flagServer, "server", "http://localhost:8080", "Base URL of the ogbanana API")
	cmd.Flags().DurationVar(&flagInterval, "interval", client.DefaultPollInterval, "Poll interval")
	cmd.Flags().DurationVar(&flagTimeout, "timeout", client.DefaultPollTimeout, "Give up after this long")
	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

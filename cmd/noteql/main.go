// Command noteql runs queries against a markdown vault from the
// command line.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/noteql/noteql"
	"github.com/noteql/noteql/pkg/index"
)

var (
	flagVault   string
	flagOrigin  string
	flagWatch   bool
	flagVerbose bool
)

func main() {
	root := &cobra.Command{
		Use:   "noteql",
		Short: "Query markdown vaults with a pipeline query language",
		Long: `noteql indexes a directory of markdown documents (frontmatter,
inline fields, tags, links and tasks) and runs queries like

  TABLE file.name, rating FROM #game WHERE rating > 3 SORT rating DESC`,
		SilenceUsage: true,
	}

	queryCmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Run a query against a vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(args[0])
		},
	}
	queryCmd.Flags().StringVarP(&flagVault, "vault", "d", ".", "vault directory to index")
	queryCmd.Flags().StringVar(&flagOrigin, "origin", "", "document path the query runs from")
	queryCmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "re-run the query when the vault changes")
	queryCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	root.AddCommand(queryCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the noteql version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(noteql.Version())
		},
	}
	root.AddCommand(versionCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runQuery(text string) error {
	logger := newLogger()

	// Parse up front so a bad query fails before indexing the vault.
	q, err := noteql.ParseQuery(text)
	if err != nil {
		return err
	}

	execute := func() error {
		snap, err := index.Load(os.DirFS(flagVault), logger)
		if err != nil {
			return fmt.Errorf("indexing vault: %w", err)
		}
		eng := noteql.New(snap, noteql.WithOrigin(flagOrigin))
		res, err := eng.Execute(q)
		if err != nil {
			return err
		}
		renderResult(os.Stdout, res)
		return nil
	}

	if err := execute(); err != nil {
		return err
	}
	if !flagWatch {
		return nil
	}
	return watchVault(flagVault, logger, execute)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mgracik/alda/pkg/alda"
)

// NewArchesCmd creates the arches command.
func NewArchesCmd() *cobra.Command {
	var repos []string
	cmd := &cobra.Command{
		Use:   "arches",
		Short: "List the architectures known to the configured repositories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			repodict, err := mergeRepoFlags(cfg.RepoDict(), repos)
			if err != nil {
				return err
			}

			analyzer := alda.New(repodict, cfg.ResolveOptions(), loadFetcher(cfg))
			defer analyzer.Cleanup()
			if err := analyzer.LoadSack(cmd.Context(), cfg.Settings.Arch, false, false); err != nil {
				return fmt.Errorf("failed to load repositories: %w", err)
			}
			for _, arch := range analyzer.Arches() {
				fmt.Println(arch)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&repos, "repo", nil, "repository as name=path (repeatable)")
	return cmd
}

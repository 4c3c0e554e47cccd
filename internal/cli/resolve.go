package cli

import (
	"fmt"
	"os"

	"github.com/aquasecurity/table"
	"github.com/spf13/cobra"

	"github.com/mgracik/alda/pkg/alda"
	"github.com/mgracik/alda/pkg/errors"
)

type resolveFlags struct {
	repos    []string
	arch     string
	excludes []string

	greedy      bool
	source      bool
	debuginfo   bool
	selfhosting bool
	fulltree    bool

	urls  bool
	quiet bool
}

// NewResolveCmd creates the resolve command.
func NewResolveCmd() *cobra.Command {
	flags := &resolveFlags{}
	cmd := &cobra.Command{
		Use:   "resolve PACKAGE...",
		Short: "Resolve the dependency closure of the given packages",
		Long: `Resolve the dependency closure of the given packages against the
configured repositories, optionally expanding it with source RPMs,
debuginfo subpackages, build dependencies and sibling subpackages.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, args, flags)
		},
	}

	cmd.Flags().StringArrayVar(&flags.repos, "repo", nil, "repository as name=path (repeatable)")
	cmd.Flags().StringVar(&flags.arch, "arch", "", "target architecture")
	cmd.Flags().StringArrayVar(&flags.excludes, "exclude", nil, "exclude package name[.arch] (repeatable)")

	cmd.Flags().BoolVar(&flags.greedy, "greedy", false, "ingest every alternative solution")
	cmd.Flags().BoolVar(&flags.source, "source", true, "include source RPMs")
	cmd.Flags().BoolVar(&flags.debuginfo, "debuginfo", true, "include debuginfo subpackages")
	cmd.Flags().BoolVar(&flags.selfhosting, "selfhosting", false, "include build dependency closures")
	cmd.Flags().BoolVar(&flags.fulltree, "fulltree", false, "include sibling subpackages")

	cmd.Flags().BoolVar(&flags.urls, "urls", false, "print download URLs instead of package names")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "plain output, one entry per line")

	return cmd
}

func runResolve(cmd *cobra.Command, args []string, flags *resolveFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	repodict, err := mergeRepoFlags(cfg.RepoDict(), flags.repos)
	if err != nil {
		return err
	}

	options := cfg.ResolveOptions()
	applyOptionFlags(cmd, flags, &options)

	arch := cfg.Settings.Arch
	if cmd.Flags().Changed("arch") {
		arch = flags.arch
	}

	analyzer := alda.New(repodict, options, loadFetcher(cfg))
	if err := analyzer.LoadSack(cmd.Context(), arch, cfg.Settings.LoadFilelists, cfg.Settings.BuildCache); err != nil {
		return fmt.Errorf("failed to load repositories: %w", err)
	}

	arches := analyzer.Arches()
	refs := parsePackageRefs(args, arches)
	excludes := parsePackageRefs(append(cfg.Excludes, flags.excludes...), arches)

	if err := analyzer.ResolveDependencies(refs, excludes); err != nil {
		return fmt.Errorf("failed to resolve dependencies: %w", err)
	}

	printInstalls(analyzer, flags)

	if problems := analyzer.Problems(); len(problems) > 0 {
		for _, ref := range problems {
			fmt.Fprintf(os.Stderr, "unresolved: %s\n", ref)
		}
		return errors.Wrapf(errors.ErrPackageNotFound, "%d requests unresolved", len(problems))
	}
	return nil
}

// applyOptionFlags overlays explicitly set command flags onto the options.
func applyOptionFlags(cmd *cobra.Command, flags *resolveFlags, options *alda.Options) {
	if cmd.Flags().Changed("greedy") {
		options.Greedy = flags.greedy
	}
	if cmd.Flags().Changed("source") {
		options.Source = flags.source
	}
	if cmd.Flags().Changed("debuginfo") {
		options.Debuginfo = flags.debuginfo
	}
	if cmd.Flags().Changed("selfhosting") {
		options.Selfhosting = flags.selfhosting
	}
	if cmd.Flags().Changed("fulltree") {
		options.Fulltree = flags.fulltree
	}
}

func printInstalls(analyzer *alda.ALDA, flags *resolveFlags) {
	if flags.quiet {
		lines := analyzer.InstallsAsStrings()
		if flags.urls {
			lines = analyzer.URLs()
		}
		for _, line := range lines {
			fmt.Println(line)
		}
		return
	}

	t := table.New(os.Stdout)
	if flags.urls {
		t.SetHeaders("Package", "URL")
		installs, urls := analyzer.Installs(), analyzer.URLs()
		for i, pkg := range installs {
			t.AddRow(pkg.String(), urls[i])
		}
	} else {
		t.SetHeaders("Package", "Arch", "Repository")
		for _, pkg := range analyzer.Installs() {
			t.AddRow(pkg.Name+"-"+pkg.EVR(), pkg.Arch, pkg.Reponame)
		}
	}
	t.Render()
}

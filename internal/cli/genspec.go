package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mgracik/alda/pkg/specfile"
)

// NewGenspecCmd creates the genspec command.
func NewGenspecCmd() *cobra.Command {
	var directory string
	cmd := &cobra.Command{
		Use:   "genspec MANIFEST",
		Short: "Generate RPM spec files from a JSON manifest",
		Long: `Generate RPM spec files from a JSON manifest. The manifest is an
ordered list of [name, values] pairs describing package headers, optional
section bodies and subpackages. One spec file is written per package.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if _, err := loadConfig(); err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			packages, err := specfile.LoadManifestFile(args[0])
			if err != nil {
				return err
			}
			for _, pkg := range packages {
				target, err := pkg.WriteSpec(directory)
				if err != nil {
					return fmt.Errorf("failed to write spec for %s: %w", pkg.Name, err)
				}
				fmt.Printf("Wrote: %s\n", target)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&directory, "directory", "d", "specs", "output directory")
	return cmd
}

package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	catalogueOut  string
	catalogueJSON bool
)

var catalogueCmd = &cobra.Command{
	Use:   "catalogue",
	Short: "Inspect and import the fact catalogue",
}

var catalogueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalogue facts",
	Args:  cobra.NoArgs,
	RunE:  runCatalogueList,
}

var catalogueImportCmd = &cobra.Command{
	Use:   "import <file.tex>",
	Short: "Create catalogue CSV files from a LaTeX fact table",
	Long: `Reads a LaTeX document whose tables list facts as "N & fact & & & \\"
rows under \section{...} headers and writes one CSV file per section.

Files are written to paths.catalogue_dir unless --out is given. Existing
files with the same name are replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogueImport,
}

func init() {
	catalogueListCmd.Flags().BoolVar(&catalogueJSON, "json", false, "output facts as JSON")
	catalogueImportCmd.Flags().StringVarP(&catalogueOut, "out", "o", "", "output directory")
	requires(catalogueListCmd, NeedSettings)
	requires(catalogueImportCmd, NeedSettings)
	catalogueCmd.AddCommand(catalogueListCmd)
	catalogueCmd.AddCommand(catalogueImportCmd)
	rootCmd.AddCommand(catalogueCmd)
}

func runCatalogueList(cmd *cobra.Command, _ []string) error {
	if catalogueService == nil {
		return notConfigured("catalogue")
	}

	facts, err := catalogueService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load catalogue: %w", err)
	}

	if catalogueJSON {
		type jsonFact struct {
			Number  int    `json:"number"`
			Text    string `json:"text"`
			Section string `json:"section"`
			File    string `json:"file"`
		}
		out := make([]jsonFact, len(facts))
		for i, f := range facts {
			out[i] = jsonFact{Number: f.Number, Text: f.Text, Section: f.Section, File: f.SourceFile}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	section := ""
	for _, f := range facts {
		if f.Section != section {
			section = f.Section
			cmd.Println(titleStyle.Render(section))
		}
		cmd.Printf("  %4d  %s\n", f.Number, f.Text)
	}
	cmd.Printf("\n%d facts\n", len(facts))
	return nil
}

func runCatalogueImport(cmd *cobra.Command, args []string) error {
	if catalogueService == nil {
		return notConfigured("catalogue")
	}

	res, err := catalogueService.Import(cmd.Context(), args[0], catalogueOut)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	for _, f := range res.Files {
		cmd.Printf("Created %s\n", filepath.Base(f))
	}
	cmd.Printf("Imported %d facts from %d sections into %d files.\n", res.Facts, res.Sections, len(res.Files))
	return nil
}

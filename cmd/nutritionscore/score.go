package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/franckalain/nutritionscore/internal/config"
	"github.com/franckalain/nutritionscore/internal/models"
	"github.com/franckalain/nutritionscore/internal/openfoodfacts"
	"github.com/franckalain/nutritionscore/internal/scoring"
)

// scored is one scored input file
type scored struct {
	File   string              `json:"file"`
	Result *models.ScoreResult `json:"result"`
}

func newScoreCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var (
		file     string
		foodType string
		product  bool
		format   string
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score products read from JSON files",
		Long: `Score reads a scoring request ({"food_type", "nutrients", "additives",
"organic", "options"}) or, with --product, an Open Food Facts product record,
and prints the score result. Use --file - to read from stdin. A --file glob
such as 'products/**/*.json' scores every matching file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "text" {
				return fmt.Errorf("unknown format %q (json|text)", format)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			reg, err := loadRegistry(cmd.Context(), cfg.Database.Path)
			if err != nil {
				return err
			}
			svc, err := newService(cfg, reg)
			if err != nil {
				return fmt.Errorf("failed to configure scoring: %w", err)
			}

			files, glob, err := expandFiles(file)
			if err != nil {
				return err
			}

			results := make([]scored, 0, len(files))
			for _, f := range files {
				data, err := readInput(cmd.InOrStdin(), f)
				if err != nil {
					return err
				}
				res, err := scoreData(svc, data, product, foodType)
				if err != nil {
					return fmt.Errorf("%s: %w", f, err)
				}
				results = append(results, scored{File: f, Result: res})
			}

			out := cmd.OutOrStdout()
			if format == "text" {
				for _, r := range results {
					renderResult(out, r.File, r.Result)
				}
				return nil
			}

			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if glob {
				return enc.Encode(results)
			}
			return enc.Encode(results[0].Result)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file or glob to score, - for stdin")
	cmd.Flags().StringVarP(&foodType, "food-type", "t", "", "food type overriding the request")
	cmd.Flags().BoolVar(&product, "product", false, "input is an Open Food Facts product record")
	cmd.Flags().StringVarP(&format, "format", "o", "json", "output format (json|text)")
	cmd.MarkFlagRequired("file")
	return cmd
}

// expandFiles resolves a glob pattern; glob reports whether one was given
func expandFiles(pattern string) (files []string, glob bool, err error) {
	if pattern == "-" || !strings.ContainsAny(pattern, "*?[{") {
		return []string{pattern}, false, nil
	}

	files, err = doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, true, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	if len(files) == 0 {
		return nil, true, fmt.Errorf("no files match %q", pattern)
	}
	return files, true, nil
}

func scoreData(svc *scoring.Service, data []byte, product bool, foodType string) (*models.ScoreResult, error) {
	if product {
		p, err := decodeProduct(data)
		if err != nil {
			return nil, err
		}
		return svc.ScoreProduct(p, scoring.Options{})
	}

	var in scoring.Input
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}
	if foodType != "" {
		ft, err := models.ParseFoodType(foodType)
		if err != nil {
			return nil, err
		}
		in.FoodType = ft
	}
	return svc.Score(in)
}

func readInput(stdin io.Reader, file string) ([]byte, error) {
	if file == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	return data, nil
}

// decodeProduct accepts both a bare product and an API response envelope
func decodeProduct(data []byte) (*openfoodfacts.Product, error) {
	var probe struct {
		Product json.RawMessage `json:"product"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to decode product: %w", err)
	}
	if len(probe.Product) > 0 {
		return openfoodfacts.DecodeResponse(bytes.NewReader(data))
	}

	return openfoodfacts.Decode(bytes.NewReader(data))
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dgallion1/regdown/internal/doctree"
	"github.com/dgallion1/regdown/internal/labelstore"
	"github.com/dgallion1/regdown/internal/regdown"
	"github.com/dgallion1/regdown/internal/source"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "regdown",
		Short: "Regulation markdown renderer",
		Long: `regdown renders regulation markdown: paragraphs carry stable {label}
identifiers, see(label) lines pull in referenced content, and form blanks,
section marks and em-dashes get dedicated markup.

Input files may be regdown text (.md, .regdown, .txt) or documents the text
can be recovered from (.html, .docx, .pdf, .csv).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log unresolved references and lookups to stderr")

	rootCmd.AddCommand(renderCmd())
	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(labelsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func loadDocument(path string) (*source.Document, error) {
	loader, err := source.ForFile(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := loader.Load(f, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return doc, nil
}

// pipelineFromFlags builds a Regdown from the render flags shared by the
// commands that render.
func pipelineFromFlags(cmd *cobra.Command, log *slog.Logger) (*regdown.Regdown, error) {
	refsPath, _ := cmd.Flags().GetString("refs")
	urlTemplate, _ := cmd.Flags().GetString("url-template")
	maxDepth, _ := cmd.Flags().GetInt("max-depth")
	xhtml, _ := cmd.Flags().GetBool("xhtml")
	noTables, _ := cmd.Flags().GetBool("no-tables")

	cfg := regdown.DefaultConfig()
	cfg.MaxDepth = maxDepth
	cfg.XHTML = xhtml
	cfg.DisableTables = noTables
	cfg.Logger = log

	if refsPath != "" {
		store, err := labelstore.LoadFile(refsPath)
		if err != nil {
			return nil, err
		}
		log.Debug("loaded references", "path", refsPath, "labels", len(store))
		refs := newResolver(store, urlTemplate, log)
		cfg.URLResolver = refs.URL
		cfg.ContentsResolver = refs.Contents
	}
	return regdown.New(cfg), nil
}

// newResolver caches lookups for the length of one run, so a see(label)
// line reads the store once for both its contents and its URL.
func newResolver(store labelstore.Store, urlTemplate string, log *slog.Logger) *labelstore.Resolver {
	return labelstore.NewResolver(store, labelstore.NewCache(time.Minute), urlTemplate, log)
}

func addRenderFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("refs", "r", "", "References file (.yaml or .csv) resolving see(label) lines")
	cmd.Flags().String("url-template", "", "URL for referenced labels; {label} is replaced")
	cmd.Flags().Int("max-depth", regdown.DefaultMaxDepth, "Maximum nesting of see(label) references")
	cmd.Flags().Bool("xhtml", false, "Emit XHTML")
	cmd.Flags().Bool("no-tables", false, "Disable pipe tables")
}

func renderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a regdown document to HTML",
		Long: `Render a regdown document to HTML, or to a JSON document tree.

Example:
  regdown render part-1030.md
  regdown render part-1030.md --refs appendices.yaml --url-template "/appendix/{label}"
  regdown render part-1030.md --format tree -o part-1030.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")

			log := newLogger(cmd)
			rd, err := pipelineFromFlags(cmd, log)
			if err != nil {
				return err
			}
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}

			w := io.Writer(os.Stdout)
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			ctx := context.Background()
			switch format {
			case "html":
				if err := rd.Convert(ctx, []byte(doc.Text), w); err != nil {
					return fmt.Errorf("render failed: %w", err)
				}
			case "tree":
				tree, err := rd.Tree(ctx, doc.Text)
				if err != nil {
					return fmt.Errorf("render failed: %w", err)
				}
				if tree.Title == "" {
					tree.Title = doc.Title
				}
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(tree); err != nil {
					return fmt.Errorf("failed to write tree: %w", err)
				}
			default:
				return fmt.Errorf("unknown format %q (html, tree)", format)
			}
			return nil
		},
	}

	addRenderFlags(cmd)
	cmd.Flags().StringP("format", "f", "html", "Output format (html, tree)")
	cmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	return cmd
}

func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <label> <file>",
		Short: "Print the raw text of a labeled region",
		Long: `Print the raw regdown text from the {label} line up to the next line
carrying a different label.

With --prefix, labels that start with the given label stay in the region, so
"extract --prefix a" keeps {a-1} and {a-1-i} with {a}.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix, _ := cmd.Flags().GetBool("prefix")

			doc, err := loadDocument(args[1])
			if err != nil {
				return err
			}
			text := regdown.ExtractLabeledParagraph(args[0], doc.Text, !prefix)
			if text == "" {
				return fmt.Errorf("label %q not found in %s", args[0], args[1])
			}
			fmt.Print(text)
			return nil
		},
	}

	cmd.Flags().Bool("prefix", false, "Include labels that start with the given label")
	return cmd
}

func labelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labels <file>",
		Short: "List the labeled blocks of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			all, _ := cmd.Flags().GetBool("all")

			rd, err := pipelineFromFlags(cmd, newLogger(cmd))
			if err != nil {
				return err
			}
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			tree, err := rd.Tree(context.Background(), doc.Text)
			if err != nil {
				return fmt.Errorf("render failed: %w", err)
			}

			var labels []doctree.Label
			for _, l := range tree.Labels() {
				if all || l.Label != "" {
					labels = append(labels, l)
				}
			}

			switch format {
			case "json":
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(labels)
			case "table":
				tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "LABEL\tLEVEL\tTAG\tID")
				for _, l := range labels {
					fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", l.Label, l.Level, l.Tag, l.ID)
				}
				return tw.Flush()
			default:
				return fmt.Errorf("unknown format %q (table, json)", format)
			}
		},
	}

	addRenderFlags(cmd)
	cmd.Flags().StringP("format", "f", "table", "Output format (table, json)")
	cmd.Flags().Bool("all", false, "Include unlabeled paragraphs")
	return cmd
}

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsawler/gleaner/export"
	"github.com/tsawler/gleaner/model"
	"github.com/tsawler/gleaner/pdf"
)

type extractFlags struct {
	output           string
	save             string
	pdfStrategy      string
	images           string
	embeddedImages   string
	noPreprocess     bool
	skipSlideFooters bool
	tables           bool
	stats            bool
}

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var flags extractFlags

	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract text from a document or image",
		Long: "Extract text from a PDF, DOCX, PPTX or image file and print it as JSON, " +
			"YAML or plain text. Page, slide and image failures are reported inline; " +
			"the command exits non-zero only when the whole file could not be processed.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, ctx, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "json", "Output format: json, text or yaml")
	cmd.Flags().StringVarP(&flags.save, "save", "s", "", "Write output to this file, or to a directory using the default name")
	cmd.Flags().StringVar(&flags.pdfStrategy, "pdf-strategy", "", "PDF strategy: auto, text or raster (default from config)")
	cmd.Flags().StringVar(&flags.images, "images", "", "Recognizer for image files: auto, vision or ocr")
	cmd.Flags().StringVar(&flags.embeddedImages, "embedded-images", "", "Recognizer for images inside documents: auto, vision, ocr or none")
	cmd.Flags().BoolVar(&flags.noPreprocess, "no-preprocess", false, "Skip grayscale, binarization and denoising before OCR")
	cmd.Flags().BoolVar(&flags.skipSlideFooters, "skip-slide-footers", false, "Drop footer, date and slide number placeholders")
	cmd.Flags().BoolVar(&flags.tables, "tables", false, "Render extracted tables after the text (text output only)")
	cmd.Flags().BoolVar(&flags.stats, "stats", false, "Print character, word and line counts to stderr")
	return cmd
}

func runExtract(cmd *cobra.Command, ctx *commandContext, path string, flags extractFlags) error {
	out, err := export.ParseFormat(flags.output)
	if err != nil {
		return err
	}
	if flags.tables && out != export.Text {
		return errors.New("--tables requires --output text")
	}

	ex, _, err := ctx.extractor(cmd)
	if err != nil {
		return err
	}
	defer ex.Close()

	if flags.pdfStrategy != "" {
		strategy, err := pdf.ParseStrategy(flags.pdfStrategy)
		if err != nil {
			return err
		}
		ex = ex.PDFStrategy(strategy)
	}
	if flags.images != "" {
		ex = ex.ImageRecognizer(strings.ToLower(flags.images))
	}
	if flags.embeddedImages != "" {
		ex = ex.EmbeddedImages(strings.ToLower(flags.embeddedImages))
	}
	if flags.noPreprocess {
		ex = ex.NoPreprocess()
	}
	if flags.skipSlideFooters {
		ex = ex.SkipSlideFooters()
	}

	result, extractErr := ex.ExtractFile(cmd.Context(), path)
	if result == nil {
		return extractErr
	}

	if err := writeResult(cmd, result, out, path, flags); err != nil {
		return err
	}
	if flags.stats {
		s := result.Stats()
		fmt.Fprintf(cmd.ErrOrStderr(), "characters: %d  words: %d  lines: %d\n", s.Characters, s.Words, s.Lines)
	}
	return extractErr
}

func writeResult(cmd *cobra.Command, result *model.Result, out export.Format, source string, flags extractFlags) error {
	if flags.save == "" {
		return encode(cmd.OutOrStdout(), result, out, flags.tables)
	}

	target := flags.save
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		target = filepath.Join(target, export.FileName(source, out))
	}
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := encode(f, result, out, flags.tables); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", target)
	return nil
}

func encode(w io.Writer, result *model.Result, out export.Format, tables bool) error {
	if err := export.Write(w, result, out); err != nil {
		return err
	}
	if tables {
		return writeTables(w, result)
	}
	return nil
}

func writeTables(w io.Writer, result *model.Result) error {
	if len(result.AllTables()) == 0 {
		return nil
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	return export.RenderTables(w, result)
}

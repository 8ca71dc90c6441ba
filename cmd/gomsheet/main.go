package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/gompdf/gomsheet/internal/config"
	"github.com/gompdf/gomsheet/internal/export"
	"github.com/gompdf/gomsheet/internal/pkg/logger"
	"github.com/gompdf/gomsheet/internal/render/pdf"
	"github.com/gompdf/gomsheet/internal/worksheet"
	"github.com/gompdf/gomsheet/pkg/api"
)

func main() {
	inputFlag := &cli.StringFlag{
		Name:    "input",
		Aliases: []string{"i"},
		Usage:   "Worksheet YAML file (default: the sample worksheet)",
	}
	verboseFlag := &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "Enable debug logging",
	}

	cmd := &cli.Command{
		Name:  "gomsheet",
		Usage: "Paginate worksheets and export them to PDF",
		Commands: []*cli.Command{
			{
				Name:  "export",
				Usage: "Export worksheet pages to a PDF file",
				Flags: []cli.Flag{
					inputFlag,
					verboseFlag,
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (overrides the file)",
					},
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Pages to export: all, current or range (overrides the file)",
					},
					&cli.IntFlag{
						Name:  "page",
						Usage: "Active page, exported by the current mode (overrides the file)",
					},
					&cli.IntFlag{
						Name:  "start",
						Usage: "First page of a range export",
					},
					&cli.IntFlag{
						Name:  "end",
						Usage: "Last page of a range export",
					},
					&cli.StringFlag{
						Name:  "locale",
						Usage: "Language of user facing messages (overrides the file)",
					},
				},
				Action: exportWorksheet,
			},
			{
				Name:   "paginate",
				Usage:  "Print page assignments and estimated page heights",
				Flags:  []cli.Flag{inputFlag, verboseFlag},
				Action: paginateWorksheet,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadConfig reads the worksheet file, or returns the defaults when none is given.
func loadConfig(cmd *cli.Command) (*config.File, error) {
	path := cmd.String("input")
	if path == "" {
		f := config.Default()
		return &f, nil
	}
	return config.Load(path)
}

func newSession(cmd *cli.Command, f *config.File, extra ...api.Option) (*api.Session, error) {
	mode := ""
	if cmd.Bool("verbose") {
		mode = "debug"
	}
	l, err := logger.New(mode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	opts := []api.Option{
		api.WithLogger(l),
		api.WithDebug(cmd.Bool("verbose")),
	}
	p := f.PaginationOptions()
	opts = append(opts,
		api.WithPageBudget(p.PageBudget),
		api.WithHeaderHeight(p.HeaderHeight),
		api.WithItemSpacing(p.ItemSpacing),
	)
	opts = append(opts, extra...)

	if cmd.String("input") == "" {
		s, err := api.New(opts...)
		if err != nil {
			return nil, err
		}
		if err := s.Store().SetActivePage(f.ActivePage()); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	}
	s, err := api.NewWithWorksheet(worksheet.Worksheet{}, opts...)
	if err != nil {
		return nil, err
	}
	if err := f.Apply(s.Store()); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func exportWorksheet(ctx context.Context, cmd *cli.Command) error {
	f, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if v := cmd.String("output"); v != "" {
		f.Export.Output = v
	}
	if v := cmd.String("mode"); v != "" {
		f.Export.Mode = v
	}
	if v := int(cmd.Int("page")); v > 0 {
		f.Export.Page = v
	}
	if v := int(cmd.Int("start")); v > 0 {
		f.Export.Start = v
	}
	if v := int(cmd.Int("end")); v > 0 {
		f.Export.End = v
	}
	if v := cmd.String("locale"); v != "" {
		f.Export.Locale = v
	}
	if err := f.Validate(); err != nil {
		return err
	}

	s, err := newSession(cmd, f,
		api.WithOutputDir(f.Export.Output),
		api.WithLocale(f.Export.Locale),
		api.WithScale(f.Export.Scale),
		api.WithCompression(pdf.Compression(f.Export.Compression)),
		api.WithDelays(f.Export.RenderDelay, f.Export.FontDelay, f.Export.HoldDelay),
		api.WithNotifier(func(msg string) { fmt.Fprintln(os.Stderr, msg) }),
		api.WithProgress(printProgress),
	)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Fprintf(os.Stderr, "Exporting %d pages...\n", s.Store().TotalPages())
	path, err := s.Export(ctx, export.Mode(f.Export.Mode), f.Range())
	if err != nil {
		return fmt.Errorf("failed to export worksheet: %w", err)
	}
	fmt.Fprintf(os.Stderr, "\nPDF written to %s\n", path)
	return nil
}

func printProgress(p export.Progress) {
	if !p.Busy {
		return
	}
	fmt.Fprintf(os.Stderr, "\r[%-10s] %5.1f%%", p.State, p.Percent)
}

func paginateWorksheet(_ context.Context, cmd *cli.Command) error {
	f, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := newSession(cmd, f)
	if err != nil {
		return err
	}
	defer s.Close()

	budget := s.Options().PageBudget
	for _, page := range s.Report() {
		marker := ""
		if page.Overflow {
			marker = "  (over budget)"
		}
		fmt.Printf("Page %d: %.0f / %.0f units%s\n", page.Page, page.Height, budget, marker)
		for _, ex := range page.Exercises {
			fmt.Printf("  - %-12s %s\n", ex.Type, ex.Title())
		}
	}
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/stockscan/internal/config"
	"github.com/MrJamesThe3rd/stockscan/internal/fiscal"
	"github.com/MrJamesThe3rd/stockscan/internal/invoice"
	"github.com/MrJamesThe3rd/stockscan/internal/lineitem"
	"github.com/MrJamesThe3rd/stockscan/internal/logger"
	"github.com/MrJamesThe3rd/stockscan/internal/ocr"
	"github.com/MrJamesThe3rd/stockscan/internal/ocr/tesseract"
	"github.com/MrJamesThe3rd/stockscan/internal/pricing"
	"github.com/MrJamesThe3rd/stockscan/internal/scan"
	"github.com/MrJamesThe3rd/stockscan/internal/textnorm"
)

type options struct {
	explain  bool
	ownName  string
	language string
	rate     string
	timeout  time.Duration
	logLevel string
}

// output is what every sub-command prints.
type output struct {
	Invoice             *invoice.Invoice `json:"invoice"`
	Confidence          float64          `json:"confidence"`
	LowConfidenceFields []string         `json:"low_confidence_fields"`
	Explain             []explainedItem  `json:"explain,omitempty"`
}

type explainedItem struct {
	Rule lineitem.Rule `json:"rule"`
	Line string        `json:"line"`
	Name string        `json:"name"`
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "stockscan",
		Short: "Extract structured invoices from scans, exports and fiscal QR codes",
		Long: `stockscan reads a supplier invoice and prints the extracted header fields
and line items as JSON. No database is needed; catalog matching happens in
the API and the TUI.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return logger.Setup(logger.Config{Level: opts.logLevel, Format: "console", Output: os.Stderr})
		},
	}

	root.PersistentFlags().BoolVar(&opts.explain, "explain", false, "report which parser rule produced each item")
	root.PersistentFlags().StringVar(&opts.ownName, "own-name", "", "own business name, never reported as counterpart")
	root.PersistentFlags().StringVar(&opts.language, "lang", "", "tesseract languages, e.g. eng+sqi")
	root.PersistentFlags().StringVar(&opts.rate, "rate", "", "local currency per EUR for estimates")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "overall processing timeout")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level")

	root.AddCommand(
		newTextCmd(opts),
		newPDFCmd(opts),
		newImageCmd(opts),
		newFiscalCmd(opts),
	)

	return root
}

func newTextCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "text <file|->",
		Short:   "Extract from a plain text or HTML export",
		Example: "  stockscan text invoice.txt\n  cat page.html | stockscan text -",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closer, err := openInput(args[0])
			if err != nil {
				return err
			}
			defer closer()

			return run(cmd, opts, func(ctx context.Context, svc *scan.Service) (*invoice.Invoice, error) {
				return svc.ScanText(ctx, r)
			})
		},
	}
}

func newPDFCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "pdf <file>",
		Short: "Extract from a digital PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			return run(cmd, opts, func(ctx context.Context, svc *scan.Service) (*invoice.Invoice, error) {
				return svc.ScanPDF(ctx, data)
			})
		},
	}
}

func newImageCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "image <file>...",
		Short:   "OCR photographed pages, in order",
		Long:    "OCR photographed pages in the given order. A page with a fiscal QR code is resolved through the tax portal instead.",
		Example: "  stockscan image page1.jpg page2.jpg --lang eng+deu",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pages := make([][]byte, 0, len(args))

			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}

				pages = append(pages, data)
			}

			return run(cmd, opts, func(ctx context.Context, svc *scan.Service) (*invoice.Invoice, error) {
				return svc.ScanImages(ctx, pages)
			})
		},
	}
}

func newFiscalCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "fiscal <url>",
		Short: "Resolve a fiscal verification URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, svc *scan.Service) (*invoice.Invoice, error) {
				return svc.ScanFiscal(ctx, args[0])
			})
		},
	}
}

type scanFunc func(ctx context.Context, svc *scan.Service) (*invoice.Invoice, error)

func run(cmd *cobra.Command, opts *options, fn scanFunc) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	rate := cfg.DefaultExchangeRate()
	if opts.rate != "" {
		if rate, err = decimal.NewFromString(opts.rate); err != nil || !rate.IsPositive() {
			return fmt.Errorf("invalid --rate %q", opts.rate)
		}
	}

	ownName := cfg.Business.Name
	if opts.ownName != "" {
		ownName = opts.ownName
	}

	language := cfg.OCR.Language
	if opts.language != "" {
		language = opts.language
	}

	var lines []string

	deps := scan.Dependencies{
		Recognizer: tesseract.New(language, cfg.OCR.TessdataPrefix),
		PDF:        ocr.PDFText{},
		Fiscal: fiscal.NewExtractor(
			fiscal.NewHTTPRenderer(cfg.Fiscal.RenderTimeout),
			fiscal.Options{
				VerifyBase:    cfg.Fiscal.VerifyURL,
				Timeout:       cfg.Fiscal.RenderTimeout,
				DefaultRate:   rate,
				MinPageLength: cfg.Fiscal.MinPageLength,
				OwnName:       ownName,
			},
			logger.WithComponent("fiscal"),
		),
		Pricing: pricing.Policy{TaxRate: cfg.TaxRate(), Markup: cfg.Markup()},
		OwnName: ownName,
		OnText: func(_ invoice.Source, text textnorm.Text) {
			lines = text.Lines
		},
	}

	inv, err := fn(ctx, scan.NewService(deps, logger.WithComponent("scan")))
	if err != nil {
		return err
	}

	out := output{
		Invoice:             inv,
		Confidence:          inv.Confidence(),
		LowConfidenceFields: inv.LowConfidenceFields(),
	}

	if opts.explain {
		for _, m := range lineitem.ParseDebug(lines) {
			out.Explain = append(out.Explain, explainedItem{Rule: m.Rule, Line: m.Line, Name: m.Item.Name})
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}

	return f, func() { f.Close() }, nil
}

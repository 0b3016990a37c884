package main

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/MrJamesThe3rd/stockscan/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/stockscan/internal/config"
	"github.com/MrJamesThe3rd/stockscan/internal/database"
	"github.com/MrJamesThe3rd/stockscan/internal/fiscal"
	"github.com/MrJamesThe3rd/stockscan/internal/inventory"
	inventoryStore "github.com/MrJamesThe3rd/stockscan/internal/inventory/store"
	"github.com/MrJamesThe3rd/stockscan/internal/logger"
	"github.com/MrJamesThe3rd/stockscan/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/stockscan/internal/matching/store"
	"github.com/MrJamesThe3rd/stockscan/internal/ocr"
	"github.com/MrJamesThe3rd/stockscan/internal/ocr/tesseract"
	"github.com/MrJamesThe3rd/stockscan/internal/pricing"
	"github.com/MrJamesThe3rd/stockscan/internal/scan"
)

type model struct {
	scanService *scan.Service
	policy      pricing.Policy

	currentView View
	scanView    view.ScanModel
	size        tea.WindowSizeMsg
}

type View int

const (
	ViewMenu View = 0
	ViewScan View = 1
)

func initialModel(logFile *os.File) model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// the terminal belongs to the TUI, logs go to a file
	if err := logger.Setup(logger.Config{Level: cfg.Log.Level, Format: "json", Output: logFile}); err != nil {
		log.Fatal().Err(err).Msg("failed to set up logger")
	}

	if err := database.Migrate(cfg.ConnectionString()); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	policy := pricing.Policy{TaxRate: cfg.TaxRate(), Markup: cfg.Markup()}

	scanSvc := scan.NewService(scan.Dependencies{
		Recognizer: tesseract.New(cfg.OCR.Language, cfg.OCR.TessdataPrefix),
		PDF:        ocr.PDFText{},
		Fiscal: fiscal.NewExtractor(
			fiscal.NewHTTPRenderer(cfg.Fiscal.RenderTimeout),
			fiscal.Options{
				VerifyBase:    cfg.Fiscal.VerifyURL,
				Timeout:       cfg.Fiscal.RenderTimeout,
				DefaultRate:   cfg.DefaultExchangeRate(),
				MinPageLength: cfg.Fiscal.MinPageLength,
				OwnName:       cfg.Business.Name,
			},
			logger.WithComponent("fiscal"),
		),
		Aliases:   matching.NewService(matchingStore.New(db)),
		Inventory: inventory.NewService(inventoryStore.New(db), policy, logger.WithComponent("inventory")),
		Pricing:   policy,
		OwnName:   cfg.Business.Name,
	}, logger.WithComponent("scan"))

	return model{
		scanService: scanSvc,
		policy:      policy,
		currentView: ViewMenu,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewScan
				m.scanView = view.NewScanModel(m.scanService, m.policy, view.SourceFile)

				initCmd := m.openScan()

				return m, initCmd
			case "2":
				m.currentView = ViewScan
				m.scanView = view.NewScanModel(m.scanService, m.policy, view.SourceFiscalURL)

				initCmd := m.openScan()

				return m, initCmd
			}
		}
	case tea.WindowSizeMsg:
		m.size = msg
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	if m.currentView == ViewScan {
		var newModel tea.Model
		newModel, cmd = m.scanView.Update(msg)
		m.scanView = newModel.(view.ScanModel)
	}

	return m, cmd
}

// openScan sizes the new scan screen to the terminal before it starts.
func (m *model) openScan() tea.Cmd {
	newModel, _ := m.scanView.Update(m.size)
	m.scanView = newModel.(view.ScanModel)

	return m.scanView.Init()
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Stockscan\n\n" +
				"1. Scan Invoice File\n" +
				"2. Scan Fiscal URL\n\n" +
				"q. Quit",
		)
	case ViewScan:
		return view.Frame(m.scanView)
	}

	return "Unknown View"
}

func main() {
	logFile, err := tea.LogToFile("stockscan-tui.log", "")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open log file")
	}
	defer logFile.Close()

	p := tea.NewProgram(initialModel(logFile), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run TUI")
		os.Exit(1)
	}
}

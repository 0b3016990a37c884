package view

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/stockscan/internal/invoice"
	"github.com/MrJamesThe3rd/stockscan/internal/pricing"
	"github.com/MrJamesThe3rd/stockscan/internal/scan"
)

// SourceMode selects where a scan reads from.
type SourceMode int

const (
	SourceFile SourceMode = iota
	SourceFiscalURL
)

type scanState int

const (
	scanStatePick scanState = iota
	scanStateScanning
	scanStateReview
	scanStateFailed
)

type ScanModel struct {
	CommonModel
	svc    *scan.Service
	policy pricing.Policy

	mode       SourceMode
	state      scanState
	filePicker filepicker.Model
	urlInput   textinput.Model
	review     ReviewModel

	status string
	err    error
}

func NewScanModel(svc *scan.Service, policy pricing.Policy, mode SourceMode) ScanModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".pdf", ".txt", ".html", ".htm", ".jpg", ".jpeg", ".png"}
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	ti := textinput.New()
	ti.Placeholder = "https://efiskalizimi-app.tatime.gov.al/invoice-check/#/verify?..."
	ti.Prompt = "URL: "
	ti.Width = 80

	if mode == SourceFiscalURL {
		ti.Focus()
	}

	return ScanModel{
		svc:        svc,
		policy:     policy,
		mode:       mode,
		filePicker: fp,
		urlInput:   ti,
	}
}

func (m ScanModel) Title() string {
	if m.state == scanStateReview {
		return m.review.Title()
	}

	if m.mode == SourceFiscalURL {
		return "Scan Fiscal URL"
	}

	return "Scan Invoice"
}

func (m ScanModel) ShortHelp() string {
	if m.state == scanStateReview {
		return m.review.ShortHelp()
	}

	return "Esc: back | Enter: select"
}

func (m ScanModel) Init() tea.Cmd {
	if m.mode == SourceFiscalURL {
		return textinput.Blink
	}

	return m.filePicker.Init()
}

func (m ScanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.SetSize(size)
		m.filePicker.SetHeight(max(size.Height-10, 5))
	}

	if m.state == scanStateReview {
		newModel, cmd := m.review.Update(msg)
		m.review = newModel.(ReviewModel)

		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			if m.state == scanStateFailed {
				m.state = scanStatePick
				m.err = nil

				return m, m.Init()
			}

			return m, Back
		}

		if m.state == scanStatePick && m.mode == SourceFiscalURL && msg.Type == tea.KeyEnter {
			url := strings.TrimSpace(m.urlInput.Value())
			if url == "" {
				return m, nil
			}

			m.state = scanStateScanning
			m.status = "Resolving fiscal receipt..."

			return m, m.scanFiscalCmd(url)
		}

	case scannedMsg:
		if msg.err != nil {
			m.state = scanStateFailed
			m.err = msg.err

			return m, nil
		}

		m.state = scanStateReview
		m.review = NewReviewModel(m.svc, m.policy, msg.review)
		if m.Height > 0 {
			m.review.resize(tea.WindowSizeMsg{Width: m.Width, Height: m.Height})
		}

		return m, m.review.Init()
	}

	if m.state != scanStatePick {
		return m, nil
	}

	var cmd tea.Cmd

	if m.mode == SourceFiscalURL {
		m.urlInput, cmd = m.urlInput.Update(msg)
		return m, cmd
	}

	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.state = scanStateScanning
		m.status = fmt.Sprintf("Scanning %s...", path)

		return m, m.scanFileCmd(path)
	}

	return m, cmd
}

func (m ScanModel) View() string {
	switch m.state {
	case scanStatePick:
		if m.mode == SourceFiscalURL {
			return lipgloss.NewStyle().Padding(2).Render(
				"Paste the verification URL from the fiscal QR code:\n\n" + m.urlInput.View(),
			)
		}

		return lipgloss.NewStyle().Padding(1).Render(
			"Select an invoice (PDF, image, text or HTML):\n\n" + m.filePicker.View(),
		)
	case scanStateScanning:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	case scanStateReview:
		return m.review.View()
	case scanStateFailed:
		return lipgloss.NewStyle().Padding(2).Render(
			errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n(Esc to try again)",
		)
	}

	return ""
}

// Messages

type scannedMsg struct {
	review *scan.Review
	err    error
}

func (m ScanModel) scanFileCmd(path string) tea.Cmd {
	svc := m.svc

	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return scannedMsg{err: err}
		}

		ctx, cancel := Ctx(scanTimeout)
		defer cancel()

		var inv *invoice.Invoice

		ct := http.DetectContentType(data)

		switch {
		case ct == "application/pdf":
			inv, err = svc.ScanPDF(ctx, data)
		case strings.HasPrefix(ct, "image/"):
			inv, err = svc.ScanImages(ctx, [][]byte{data})
		default:
			inv, err = svc.ScanText(ctx, bytes.NewReader(data))
		}

		if err != nil {
			return scannedMsg{err: err}
		}

		rv, err := svc.Review(ctx, inv)

		return scannedMsg{review: rv, err: err}
	}
}

func (m ScanModel) scanFiscalCmd(url string) tea.Cmd {
	svc := m.svc

	return func() tea.Msg {
		ctx, cancel := Ctx(scanTimeout)
		defer cancel()

		inv, err := svc.ScanFiscal(ctx, url)
		if err != nil {
			return scannedMsg{err: err}
		}

		rv, err := svc.Review(ctx, inv)

		return scannedMsg{review: rv, err: err}
	}
}

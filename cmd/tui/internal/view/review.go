package view

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/stockscan/internal/inventory"
	"github.com/MrJamesThe3rd/stockscan/internal/invoice"
	"github.com/MrJamesThe3rd/stockscan/internal/matching"
	"github.com/MrJamesThe3rd/stockscan/internal/pricing"
	"github.com/MrJamesThe3rd/stockscan/internal/scan"
)

type formBindings struct {
	action    matching.Action
	ref       string
	qty       string
	confirmed bool
}

type reviewState int

const (
	reviewStateBrowse reviewState = iota
	reviewStateEdit
	reviewStateConfirm
	reviewStateApplying
	reviewStateDone
)

// ReviewModel shows one scanned invoice with a match per line item, lets the
// user correct matches and applies the confirmed result to stock.
type ReviewModel struct {
	CommonModel
	svc    *scan.Service
	policy pricing.Policy

	state   reviewState
	review  *scan.Review
	results []matching.MatchResult
	table   table.Model
	form    *huh.Form

	// bindings outlive the model copies bubbletea makes
	binds *formBindings

	result *inventory.Result
	status string
	err    error
}

func NewReviewModel(svc *scan.Service, policy pricing.Policy, rv *scan.Review) ReviewModel {
	columns := []table.Column{
		{Title: "Action", Width: 8},
		{Title: "Match", Width: 14},
		{Title: "Product", Width: 12},
		{Title: "Code", Width: 14},
		{Title: "Name", Width: 32},
		{Title: "Qty", Width: 5},
		{Title: "Unit", Width: 10},
		{Title: "Suggested", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	m := ReviewModel{
		svc:     svc,
		policy:  policy,
		review:  rv,
		results: append([]matching.MatchResult(nil), rv.Results...),
		table:   t,
		binds:   &formBindings{},
	}
	m.refreshTable()

	return m
}

func (m *ReviewModel) resize(msg tea.WindowSizeMsg) {
	m.SetSize(msg)
	m.table.SetHeight(max(msg.Height-18, 5))
}

func (m ReviewModel) Title() string { return "Review Invoice" }

func (m ReviewModel) ShortHelp() string {
	switch m.state {
	case reviewStateEdit, reviewStateConfirm:
		return "Navigate form | Esc: cancel"
	case reviewStateDone:
		return "Esc: back"
	}

	return "e: edit match | x: drop item | c: confirm | Esc: discard"
}

func (m ReviewModel) Init() tea.Cmd {
	return nil
}

func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case reconciledMsg:
		m.state = reviewStateDone
		m.result = msg.result
		m.err = msg.err

		return m, nil

	case tea.WindowSizeMsg:
		m.resize(msg)
		return m, nil
	}

	switch m.state {
	case reviewStateBrowse:
		return m.updateBrowse(msg)
	case reviewStateEdit, reviewStateConfirm:
		return m.updateForm(msg)
	case reviewStateDone:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	return m, nil
}

func (m ReviewModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "e":
			return m.enterEditMode()
		case "x":
			idx := m.table.Cursor()
			if idx >= 0 && idx < len(m.results) {
				m.results = append(m.results[:idx], m.results[idx+1:]...)
				m.refreshTable()
			}

			return m, nil
		case "c":
			return m.enterConfirmMode()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ReviewModel) enterEditMode() (tea.Model, tea.Cmd) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.results) {
		return m, nil
	}

	r := m.results[idx]
	m.binds.action = r.Action
	m.binds.ref = r.ProductRef
	m.binds.qty = strconv.Itoa(r.Item.Quantity)

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[matching.Action]().
				Title("Action").
				Options(
					huh.NewOption("Update existing product", matching.ActionUpdate),
					huh.NewOption("Add as new product", matching.ActionAddNew),
				).
				Value(&m.binds.action),

			huh.NewInput().
				Title("Product ID").
				Description("Required when updating").
				Value(&m.binds.ref),

			huh.NewInput().
				Title("Quantity").
				Value(&m.binds.qty).
				Validate(func(s string) error {
					if n, err := strconv.Atoi(strings.TrimSpace(s)); err != nil || n < 1 {
						return errors.New("quantity must be a positive number")
					}
					return nil
				}),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = reviewStateEdit
	m.table.Blur()

	return m, m.form.Init()
}

func (m ReviewModel) enterConfirmMode() (tea.Model, tea.Cmd) {
	if len(m.results) == 0 {
		m.status = "Nothing to apply."
		return m, nil
	}

	m.binds.confirmed = false
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Apply %d items to stock?", len(m.results))).
				Description(m.summary()).
				Affirmative("Apply").
				Negative("Back").
				Value(&m.binds.confirmed),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = reviewStateConfirm
	m.table.Blur()

	return m, m.form.Init()
}

func (m ReviewModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m.closeForm(), nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if m.state == reviewStateConfirm {
		if !m.binds.confirmed {
			return m.closeForm(), nil
		}

		m.state = reviewStateApplying
		m.form = nil

		return m, m.confirmCmd()
	}

	if err := m.applyEdit(); err != nil {
		m.status = err.Error()
	}

	return m.closeForm(), nil
}

func (m ReviewModel) closeForm() ReviewModel {
	m.state = reviewStateBrowse
	m.form = nil
	m.table.Focus()

	return m
}

// applyEdit writes the form back to the selected result. A hand-picked
// match carries no match type, which marks it for learning on confirm.
func (m *ReviewModel) applyEdit() error {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.results) {
		return nil
	}

	r := m.results[idx]
	r.Item.Quantity, _ = strconv.Atoi(strings.TrimSpace(m.binds.qty))

	ref := strings.TrimSpace(m.binds.ref)

	switch m.binds.action {
	case matching.ActionUpdate:
		if ref == "" {
			return errors.New("a product ID is required to update")
		}

		if r.Action != matching.ActionUpdate || r.ProductRef != ref {
			r.MatchType = ""
			r.Distance = 0
		}

		r.Action = matching.ActionUpdate
		r.ProductRef = ref
		r.Pricing = nil
	case matching.ActionAddNew:
		q := m.policy.Quote(r.Item)
		r.Action = matching.ActionAddNew
		r.ProductRef = ""
		r.MatchType = ""
		r.Distance = 0
		r.Pricing = &q
	}

	m.results[idx] = r
	m.refreshTable()

	return nil
}

func (m ReviewModel) summary() string {
	updates, adds := 0, 0

	for _, r := range m.results {
		if r.Action == matching.ActionUpdate {
			updates++
		} else {
			adds++
		}
	}

	return fmt.Sprintf("%d updates, %d new products", updates, adds)
}

func (m ReviewModel) View() string {
	switch m.state {
	case reviewStateApplying:
		return lipgloss.NewStyle().Padding(2).Render("Applying to stock...")
	case reviewStateDone:
		return m.viewResult()
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(m.viewHeader()),
		tableView,
	)

	if m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = faintStyle.Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m ReviewModel) viewHeader() string {
	inv := m.review.Invoice
	str := func(s string) string { return s }
	party := func(p invoice.Party) string { return p.Name }
	money := func(d decimal.Decimal) string { return FormatMoney(d) }

	lines := []string{
		fmt.Sprintf("Supplier: %s   Number: %s   Date: %s",
			FormatField(inv.Supplier, party),
			FormatField(inv.InvoiceNumber, str),
			FormatField(inv.Date, str),
		),
		fmt.Sprintf("Total: %s %s   EUR: %s   Source: %s",
			FormatField(inv.TotalLocal, money),
			inv.Currency,
			FormatField(inv.TotalEUR, money),
			inv.Source,
		),
		fmt.Sprintf("Confidence: %.0f%%", m.review.Confidence*100),
	}

	if len(m.review.LowConfidenceFields) > 0 {
		lines = append(lines, warnStyle.Render("Check: "+strings.Join(m.review.LowConfidenceFields, ", ")))
	}

	if m.review.Incomplete {
		lines = append(lines, warnStyle.Render("Header incomplete, no payable will be recorded."))
	}

	return strings.Join(lines, "\n")
}

func (m ReviewModel) viewResult() string {
	style := lipgloss.NewStyle().Padding(2)
	if m.err != nil {
		return style.Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n(Esc to go back)")
	}

	s := successStyle.Render(fmt.Sprintf("Updated %d, added %d products.", m.result.Updated, m.result.Added))

	if m.result.PayableRecorded {
		s += "\nPayable recorded for the supplier."
	}

	for _, e := range m.result.Errors {
		s += "\n" + errorStyle.Render(fmt.Sprintf("Item %d (%s): %s", e.Index+1, e.Item, e.Message))
	}

	return style.Render(s + "\n\n(Esc to go back)")
}

func (m *ReviewModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.results))

	for _, r := range m.results {
		suggested := ""
		if r.Pricing != nil {
			suggested = FormatMoney(r.Pricing.SuggestedPrice)
		}

		match := string(r.MatchType)
		if r.Action == matching.ActionUpdate && match == "" {
			match = "manual"
		}

		rows = append(rows, table.Row{
			string(r.Action),
			match,
			r.ProductRef,
			r.Item.Code,
			r.Item.Name,
			strconv.Itoa(r.Item.Quantity),
			FormatMoney(r.Item.UnitPrice),
			suggested,
		})
	}

	m.table.SetRows(rows)

	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

// Messages

type reconciledMsg struct {
	result *inventory.Result
	err    error
}

func (m ReviewModel) confirmCmd() tea.Cmd {
	svc := m.svc
	inv := m.review.Invoice
	results := m.results

	return func() tea.Msg {
		ctx, cancel := Ctx(reconcileTimeout)
		defer cancel()

		res, err := svc.Confirm(ctx, inv, results)

		return reconciledMsg{result: res, err: err}
	}
}

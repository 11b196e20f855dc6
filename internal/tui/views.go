package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fenwick/hindsight/internal/mirror"
	"github.com/fenwick/hindsight/internal/model"
)

// View renders the browser.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.theme.Title.Render("Exception Review Queue"))
	b.WriteString("  ")
	b.WriteString(m.theme.Subtitle.Render(
		fmt.Sprintf("hi >= %.2f, lo <= %.2f", m.hi, m.lo)))
	b.WriteString("\n\n")

	b.WriteString(m.table.View())
	b.WriteString("\n")

	if m.showDetail {
		b.WriteString(m.theme.DetailBox.Render(m.detail.View()))
		b.WriteString("\n")
	}

	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keymap))

	return b.String()
}

// statusLine summarizes the active filter and position.
func (m Model) statusLine() string {
	position := "0/0"
	if len(m.visible) > 0 {
		position = fmt.Sprintf("%d/%d", m.table.Cursor()+1, len(m.visible))
	}
	return m.theme.StatusBar.Render(
		fmt.Sprintf("%s · showing %s · %d total", position, m.filter.label(), len(m.items)))
}

// renderDetail lays out every field behind one flagged record.
func (m Model) renderDetail(item mirror.ReviewItem) string {
	label := func(s string) string { return m.theme.Label.Render(fmt.Sprintf("%-18s", s)) }
	value := func(s string) string { return m.theme.Value.Render(s) }

	decision := m.theme.Rejected.Render("rejected")
	if item.Approved {
		decision = m.theme.Approved.Render("approved")
	}

	lines := []string{
		label("Application") + value(item.ApplicationID),
		label("Exception") + m.exceptionBadge(item.Exception),
		label("P(approve)") + value(fmt.Sprintf("%.4f", item.Probability)),
		label("Margin") + value(fmt.Sprintf("%.4f past threshold", item.Margin)),
		label("Decision") + decision,
		"",
		label("Credit score") + value(fmt.Sprintf("%d (%s)", item.CreditScore, item.Bands.Risk)),
		label("Annual income") + value(fmt.Sprintf("%.2f (%s)", item.AnnualIncome, item.Bands.Income)),
		label("Loan amount") + value(fmt.Sprintf("%.2f (%s)", item.LoanAmount, item.Bands.Amount)),
		label("Term") + value(fmt.Sprintf("%d months (%s)", item.TermMonths, item.Bands.Term)),
		label("Debt/income") + value(fmt.Sprintf("%.3f", item.DebtToIncome)),
		label("Payment/income") + value(fmt.Sprintf("%.3f", item.PaymentToIncome)),
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// exceptionBadge renders an exception type in its badge color.
func (m Model) exceptionBadge(e model.ExceptionType) string {
	switch e {
	case model.ExceptionUnderApproval:
		return m.theme.Under.Render(string(e))
	case model.ExceptionOverApproval:
		return m.theme.Over.Render(string(e))
	default:
		return m.theme.Value.Render(string(e))
	}
}

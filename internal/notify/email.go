package notify

import (
	"fmt"
	"html"
	"strings"

	"saldo/internal/core"
)

type levelStyle struct {
	Emoji string
	Color string
	Title string
}

var levelStyles = map[core.AlertLevel]levelStyle{
	core.AlertWarning:  {Emoji: "⚠️", Color: "#f59e0b", Title: "Heads up: budget running hot"},
	core.AlertDanger:   {Emoji: "🚨", Color: "#ef4444", Title: "Urgent: budget nearly spent"},
	core.AlertExceeded: {Emoji: "❌", Color: "#dc2626", Title: "Alert: budget exceeded"},
}

// Message is a rendered alert ready for a Sink.
type Message struct {
	Subject string
	HTML    string
	Text    string
}

// Render turns an evaluated budget alert into an email. Only non-safe levels
// have a style; rendering a safe alert falls back to the warning style, but
// callers are expected to filter those out first.
func Render(alert core.BudgetAlert, userName, currencyCode string) Message {
	style, ok := levelStyles[alert.Level]
	if !ok {
		style = levelStyles[core.AlertWarning]
	}

	currency := func(m core.Money) string { return m.Currency(currencyCode) }
	period := core.FormatPeriod(alert.Budget.Period, alert.Window.Start, alert.Window.End)
	greeting := "Hello"
	if userName != "" {
		greeting = "Hello " + userName
	}

	var headline string
	if alert.Level == core.AlertExceeded {
		headline = fmt.Sprintf("You are %s over budget", currency(alert.Remaining.Neg()))
	} else {
		headline = fmt.Sprintf("You have used %.0f%% of your budget", alert.Percentage)
	}

	subject := fmt.Sprintf("%s %s - %s", style.Emoji, style.Title, alert.Budget.Name)

	remainingLabel := "Remaining"
	remainingColor := "#10b981"
	remaining := alert.Remaining
	if alert.Remaining.Cents <= 0 {
		remainingLabel = "Over by"
		remainingColor = "#dc2626"
		remaining = alert.Remaining.Neg()
	}

	bar := alert.Percentage
	if bar > 100 {
		bar = 100
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>%s</title></head>
<body style="margin:0;padding:0;font-family:-apple-system,'Segoe UI',Roboto,Arial,sans-serif;background-color:#f3f4f6;">
<table width="100%%" cellpadding="0" cellspacing="0" style="padding:40px 0;"><tr><td align="center">
<table width="600" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:8px;overflow:hidden;">
<tr><td style="background-color:%s;padding:30px 40px;text-align:center;">
<h1 style="margin:0;color:#ffffff;font-size:32px;">%s</h1>
<h2 style="margin:10px 0 0 0;color:#ffffff;font-size:24px;">%s</h2>
</td></tr>
<tr><td style="padding:40px;">
<p style="margin:0 0 20px 0;font-size:16px;color:#374151;">%s,</p>
<p style="margin:0 0 30px 0;font-size:16px;color:#374151;">%s &quot;<strong>%s</strong>&quot; in category <strong>%s</strong>.</p>
<table width="100%%" cellpadding="0" cellspacing="0" style="background-color:#f9fafb;border-radius:8px;padding:20px;">
<tr><td style="padding:10px 20px;"><span style="color:#6b7280;font-size:14px;">Period</span><br><strong style="color:#111827;font-size:16px;">%s</strong></td></tr>
<tr><td style="padding:10px 20px;border-top:1px solid #e5e7eb;"><span style="color:#6b7280;font-size:14px;">Spent</span><br><strong style="color:#ef4444;font-size:20px;">%s</strong></td></tr>
<tr><td style="padding:10px 20px;border-top:1px solid #e5e7eb;"><span style="color:#6b7280;font-size:14px;">Budget limit</span><br><strong style="color:#111827;font-size:20px;">%s</strong></td></tr>
<tr><td style="padding:10px 20px;border-top:1px solid #e5e7eb;"><span style="color:#6b7280;font-size:14px;">Used</span><br><strong style="color:%s;font-size:24px;">%.1f%%</strong></td></tr>
<tr><td style="padding:10px 20px;border-top:1px solid #e5e7eb;"><span style="color:#6b7280;font-size:14px;">%s</span><br><strong style="color:%s;font-size:18px;">%s</strong></td></tr>
</table>
<div style="margin-top:30px;background-color:#e5e7eb;height:20px;border-radius:10px;overflow:hidden;">
<div style="background-color:%s;height:100%%;width:%.0f%%;"></div>
</div>
</td></tr>
<tr><td style="background-color:#f9fafb;padding:20px 40px;text-align:center;border-top:1px solid #e5e7eb;">
<p style="margin:0;color:#6b7280;font-size:12px;">Automated budget alert for &quot;%s&quot;.</p>
</td></tr>
</table>
</td></tr></table>
</body>
</html>`,
		html.EscapeString(subject),
		style.Color, style.Emoji, html.EscapeString(style.Title),
		html.EscapeString(greeting),
		html.EscapeString(headline), html.EscapeString(alert.Budget.Name), html.EscapeString(alert.CategoryName),
		html.EscapeString(period),
		currency(alert.Spent), currency(alert.Budget.Amount),
		style.Color, alert.Percentage,
		remainingLabel, remainingColor, currency(remaining),
		style.Color, bar,
		html.EscapeString(alert.Budget.Name))

	text := fmt.Sprintf(`%s %s

%s,

%s "%s" in category %s.

Period: %s
Spent: %s
Budget limit: %s
Used: %.1f%%
%s: %s

---
Automated budget alert.
`,
		style.Emoji, style.Title,
		greeting,
		headline, alert.Budget.Name, alert.CategoryName,
		period,
		currency(alert.Spent), currency(alert.Budget.Amount),
		alert.Percentage,
		remainingLabel, currency(remaining))

	return Message{Subject: subject, HTML: b.String(), Text: text}
}

package email

import (
	"fmt"
	"html/template"
	"strings"

	domain "jkd-coach-app/backend/internal/domain/user"
)

var welcomeHTMLTemplate = template.Must(template.New("welcome_html").Parse(`<p>Hello {{.Name}},</p>
<p>Welcome to <strong>JKD Coach</strong>. Your account is ready.</p>
<p>Log your sparring rounds after each session and the engine will score the danger level and hand you a game plan for the next round.</p>
{{if .URL}}<p><a href="{{.URL}}" style="display:inline-block;padding:10px 18px;background:#16a34a;color:#ffffff;text-decoration:none;border-radius:6px;">Open the dashboard</a></p>{{end}}
<p>Train smart,<br>JKD Coach Team</p>`))

// composeWelcomeContent builds the welcome email subject and bodies.
func composeWelcomeContent(baseURL string, user *domain.User) (subject string, textBody string, htmlBody string) {
	dashboardURL := buildDashboardURL(baseURL)

	subject = "Welcome to JKD Coach"

	textBody = fmt.Sprintf("Hello %s,\n\nWelcome to JKD Coach. Your account is ready.\n\nLog your sparring rounds after each session and the engine will score the danger level and hand you a game plan for the next round.\n",
		safeDisplayName(user),
	)
	if dashboardURL != "" {
		textBody += fmt.Sprintf("\nOpen the dashboard: %s\n", dashboardURL)
	}
	textBody += "\nTrain smart,\nJKD Coach Team"

	tmplData := struct {
		Name string
		URL  string
	}{
		Name: safeDisplayName(user),
		URL:  dashboardURL,
	}

	htmlBodyBuilder := new(strings.Builder)
	_ = welcomeHTMLTemplate.Execute(htmlBodyBuilder, tmplData)
	htmlBody = htmlBodyBuilder.String()

	return subject, textBody, htmlBody
}

func buildDashboardURL(baseURL string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return ""
	}
	return trimmed + "/dashboard"
}

func safeDisplayName(user *domain.User) string {
	if user == nil {
		return "there"
	}
	if name := strings.TrimSpace(user.FullName); name != "" {
		return name
	}
	if name := strings.TrimSpace(user.Username); name != "" {
		return name
	}
	if strings.TrimSpace(user.Email) != "" {
		return strings.TrimSpace(user.Email)
	}
	return "there"
}

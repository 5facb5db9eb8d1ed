package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/intent-feedx/feedx/internal/config"
	"github.com/intent-feedx/feedx/internal/models"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Service sends daily run reports to Teams and/or email
type Service struct {
	config *config.Config
	client *resty.Client
	dialer *gomail.Dialer
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message card
type TeamsMessage struct {
	Type     string         `json:"@type"`
	Context  string         `json:"@context"`
	Title    string         `json:"title"`
	Text     string         `json:"text"`
	Sections []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle string      `json:"activityTitle,omitempty"`
	ActivityText  string      `json:"activityText,omitempty"`
	Facts         []TeamsFact `json:"facts,omitempty"`
	Markdown      bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Enabled reports whether any notification channel is configured
func Enabled(cfg *config.Config) bool {
	return cfg.TeamsWebhookURL != "" || cfg.NotificationEmail != ""
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	s := &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
	if cfg.NotificationEmail != "" {
		s.dialer = gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	}
	return s
}

// SendReport sends a daily report via every configured channel
func (s *Service) SendReport(report *models.DailyReport) error {
	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.sendToTeams(report); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Info("Successfully sent report to Teams")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(report); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Info("Successfully sent report via email")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (s *Service) sendToTeams(report *models.DailyReport) error {
	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(buildTeamsMessage(report)).
		Post(s.config.TeamsWebhookURL)
	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func buildTeamsMessage(report *models.DailyReport) *TeamsMessage {
	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   fmt.Sprintf("Daily search - %s", report.StartedAt.Format("2006-01-02")),
		Text:    fmt.Sprintf("Saved %d new contents from %d searches", report.TotalSaved, len(report.Results)),
	}

	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Summary",
		Facts: []TeamsFact{
			{Name: "Searches", Value: fmt.Sprintf("%d", len(report.Results))},
			{Name: "Saved", Value: fmt.Sprintf("%d", report.TotalSaved)},
			{Name: "Failed", Value: fmt.Sprintf("%d", report.FailedCount)},
			{Name: "Duration", Value: report.FinishedAt.Sub(report.StartedAt).Round(time.Second).String()},
		},
		Markdown: true,
	})

	if len(report.Results) > 0 {
		lines := make([]string, 0, len(report.Results))
		for _, r := range report.Results {
			line := fmt.Sprintf("**%s** (%s): %d retrieved, %d saved", r.Keyword, r.SourceType, r.Retrieved, r.Saved)
			if r.Error != "" {
				line += fmt.Sprintf(" - failed: %s", r.Error)
			}
			lines = append(lines, line)
		}

		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Searches",
			ActivityText:  strings.Join(lines, "\n\n"),
			Markdown:      true,
		})
	}

	return message
}

func (s *Service) sendEmail(report *models.DailyReport) error {
	subject := fmt.Sprintf("Daily search %s - %d saved, %d failed",
		report.StartedAt.Format("2006-01-02"), report.TotalSaved, report.FailedCount)

	htmlBody, err := buildEmailHTML(report)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", buildEmailText(report))
	m.AddAlternative("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

const emailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Daily search report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        table { border-collapse: collapse; }
        td, th { border: 1px solid #ddd; padding: 6px 10px; text-align: left; }
        .failed { color: #d13438; }
    </style>
</head>
<body>
    <h1>Daily search report</h1>
    <p>Run {{.RunID}} started {{.StartedAt.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    <p><strong>Saved:</strong> {{.TotalSaved}} &middot; <strong>Failed searches:</strong> {{.FailedCount}}</p>

    {{if .Results}}
    <table>
        <tr><th>Keyword</th><th>Source</th><th>Retrieved</th><th>Saved</th><th>Error</th></tr>
        {{range .Results}}
        <tr{{if .Error}} class="failed"{{end}}>
            <td>{{.Keyword}}</td><td>{{.SourceType}}</td><td>{{.Retrieved}}</td><td>{{.Saved}}</td><td>{{.Error}}</td>
        </tr>
        {{end}}
    </table>
    {{end}}
</body>
</html>
`

var emailTmpl = template.Must(template.New("email").Parse(emailTemplate))

func buildEmailHTML(report *models.DailyReport) (string, error) {
	var buf bytes.Buffer
	if err := emailTmpl.Execute(&buf, report); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func buildEmailText(report *models.DailyReport) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("Daily search report - run %s\n", report.RunID))
	text.WriteString(fmt.Sprintf("Started: %s\n\n", report.StartedAt.Format("2006-01-02 15:04:05 UTC")))
	text.WriteString(fmt.Sprintf("Saved: %d\nFailed searches: %d\n", report.TotalSaved, report.FailedCount))

	if len(report.Results) > 0 {
		text.WriteString("\nSEARCHES\n")
		text.WriteString("========\n")
		for i, r := range report.Results {
			text.WriteString(fmt.Sprintf("%d. %s (%s): %d retrieved, %d saved\n", i+1, r.Keyword, r.SourceType, r.Retrieved, r.Saved))
			if r.Error != "" {
				text.WriteString(fmt.Sprintf("   Error: %s\n", r.Error))
			}
		}
	}

	return text.String()
}

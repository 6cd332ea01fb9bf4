package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/modulbox/leadform-backend/internal/budget"
	"github.com/modulbox/leadform-backend/internal/domain"
	pkglogger "github.com/modulbox/leadform-backend/pkg/logger"
	"gopkg.in/gomail.v2"
)

// Notifier tells the sales team about a new lead
type Notifier interface {
	Notify(ctx context.Context, lead *domain.Lead) error
}

// WebhookNotifier posts a chat message to an incoming-webhook URL
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
}

// NewWebhookNotifier creates a WebhookNotifier
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type webhookPayload struct {
	Text string `json:"text"`
}

// Notify sends the lead summary as {"text": ...}
func (n *WebhookNotifier) Notify(ctx context.Context, lead *domain.Lead) error {
	body, err := json.Marshal(webhookPayload{Text: leadSummary(lead)})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

// MailSender sends composed messages. *gomail.Dialer implements it.
type MailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailNotifier emails the lead summary over SMTP
type EmailNotifier struct {
	sender     MailSender
	from       string
	recipients []string
}

// NewEmailNotifier creates an EmailNotifier using an SMTP dialer
func NewEmailNotifier(host string, port int, user, password, from string, recipients []string) *EmailNotifier {
	return NewEmailNotifierWithSender(gomail.NewDialer(host, port, user, password), from, recipients)
}

// NewEmailNotifierWithSender creates an EmailNotifier around an existing sender
func NewEmailNotifierWithSender(sender MailSender, from string, recipients []string) *EmailNotifier {
	return &EmailNotifier{sender: sender, from: from, recipients: recipients}
}

var leadEmailTemplate = template.Must(template.New("lead").Parse(`<h2>New lead #{{.ID}}: {{.CompanyName}}</h2>
<p>{{.ContactName}} &lt;{{.Email}}&gt;, {{.Phone}}<br>{{.City}}, {{.Country}}</p>
<p>Price range: {{.PriceFrom}} - {{.PriceTo}} {{.Currency}}<br>Models: {{.ModelCount}}</p>
{{if .Images}}<ul>{{range .Images}}<li><a href="{{.URL}}">{{.Field}}</a> ({{.Storage}})</li>{{end}}</ul>{{end}}
`))

// Notify sends one email to all recipients
func (n *EmailNotifier) Notify(ctx context.Context, lead *domain.Lead) error {
	if len(n.recipients) == 0 {
		return nil
	}

	var body bytes.Buffer
	if err := leadEmailTemplate.Execute(&body, lead); err != nil {
		return fmt.Errorf("failed to render lead email: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", n.recipients...)
	m.SetHeader("Subject", fmt.Sprintf("New lead: %s", lead.CompanyName))
	m.SetBody("text/plain", leadSummary(lead))
	m.AddAlternative("text/html", body.String())

	if err := n.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send lead email: %w", err)
	}
	return nil
}

// MultiNotifier fans out to every notifier and joins their errors
type MultiNotifier []Notifier

// Notify calls every notifier even when earlier ones fail
func (m MultiNotifier) Notify(ctx context.Context, lead *domain.Lead) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, lead); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AsyncNotifier runs notifications in the background. Failures are logged only.
type AsyncNotifier struct {
	next    Notifier
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAsyncNotifier wraps next
func NewAsyncNotifier(next Notifier, timeout time.Duration) *AsyncNotifier {
	return &AsyncNotifier{next: next, timeout: timeout}
}

// Notify returns immediately
func (a *AsyncNotifier) Notify(_ context.Context, lead *domain.Lead) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		if err := a.next.Notify(ctx, lead); err != nil {
			pkglogger.GetLogger().Error().
				Err(err).
				Int64("lead_id", lead.ID).
				Msg("lead notification failed")
		}
	}()
	return nil
}

// Wait blocks until in-flight notifications finish
func (a *AsyncNotifier) Wait() {
	a.wg.Wait()
}

func leadSummary(lead *domain.Lead) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New lead #%d: %s\n", lead.ID, lead.CompanyName)
	fmt.Fprintf(&b, "Contact: %s <%s> %s\n", lead.ContactName, lead.Email, lead.Phone)
	fmt.Fprintf(&b, "Location: %s, %s\n", lead.City, lead.Country)
	fmt.Fprintf(&b, "Price: %.0f-%.0f %s, models: %d\n", lead.PriceFrom, lead.PriceTo, lead.Currency, lead.ModelCount)
	fmt.Fprintf(&b, "Images: %d (%s)", lead.ImageCount, budget.FormatBytes(lead.ImageBytes))
	return b.String()
}

// Package mailer provides the base email provider that the Espace Membre
// provider wrapper decorates. It sends the magic link over SMTP.
package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	espacemembre "github.com/goliatone/go-auth-espace-membre"
	"github.com/goliatone/go-auth-espace-membre/client"
	"github.com/goliatone/go-errors"
	mail "github.com/go-mail/mail"
)

const (
	// ProviderID is accepted by espacemembre.ProviderWrapper.
	ProviderID = espacemembre.EmailProviderID

	DefaultSubject = "Sign in to %s"
	DefaultMaxAge  = 24 * time.Hour

	TextCodeSendFailed = "ESPACE_MEMBRE_MAIL_SEND_FAILED"
)

// Sender delivers prepared messages. *mail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*mail.Message) error
}

// SMTPConfig describes the SMTP relay.
type SMTPConfig struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	Username           string `yaml:"username"`
	Password           string `yaml:"password"`
	SSL                bool   `yaml:"ssl"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// NewDialer returns a go-mail dialer for cfg.
func NewDialer(cfg SMTPConfig) *mail.Dialer {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.SSL
	d.TLSConfig = &tls.Config{
		ServerName:         cfg.Host,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}
	return d
}

// Config configures a Provider.
type Config struct {
	From string
	// Subject may hold a %s verb, replaced by the host of the sign-in URL.
	Subject string
	MaxAge  time.Duration
	Logger  espacemembre.Logger
}

// Provider is an espacemembre.EmailProvider backed by a Sender.
type Provider struct {
	sender  Sender
	from    string
	subject string
	maxAge  time.Duration
	logger  espacemembre.Logger
}

var _ espacemembre.EmailProvider = (*Provider)(nil)

func New(sender Sender, cfg Config) (*Provider, error) {
	if sender == nil {
		return nil, client.NewConfigError("mailer: sender is required")
	}
	if cfg.From == "" {
		return nil, client.NewConfigError("mailer: from address is required")
	}

	p := &Provider{
		sender:  sender,
		from:    cfg.From,
		subject: cfg.Subject,
		maxAge:  cfg.MaxAge,
		logger:  cfg.Logger,
	}
	if p.subject == "" {
		p.subject = DefaultSubject
	}
	if p.maxAge <= 0 {
		p.maxAge = DefaultMaxAge
	}
	if p.logger == nil {
		p.logger = espacemembre.NewZapLogger(nil)
	}
	return p, nil
}

func (p *Provider) ID() string   { return ProviderID }
func (p *Provider) Type() string { return "email" }

// MaxAge is how long a verification token stays valid.
func (p *Provider) MaxAge() time.Duration { return p.maxAge }

// NormalizeIdentifier trims and lower-cases an email address.
func (p *Provider) NormalizeIdentifier(identifier string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(identifier))
	if normalized == "" {
		return "", client.NewConfigError("mailer: identifier is empty")
	}
	return normalized, nil
}

// SendVerificationRequest mails params.URL to params.Identifier.
func (p *Provider) SendVerificationRequest(ctx context.Context, params espacemembre.VerificationRequestParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := p.Message(params)
	if err != nil {
		return err
	}

	if err := p.sender.DialAndSend(msg); err != nil {
		p.logger.Error("verification email send failed", "to", params.Identifier, "error", err)
		return errors.Wrap(err, errors.CategoryInternal, "mailer: failed to send verification email").
			WithTextCode(TextCodeSendFailed).
			WithMetadata(map[string]any{"to": params.Identifier})
	}

	p.logger.Info("verification email sent", "to", params.Identifier)
	return nil
}

// Message builds the multipart (text + html) verification email.
func (p *Provider) Message(params espacemembre.VerificationRequestParams) (*mail.Message, error) {
	host := hostOf(params.URL)

	var html bytes.Buffer
	if err := htmlTemplate.Execute(&html, map[string]string{"URL": params.URL, "Host": host}); err != nil {
		return nil, err
	}

	m := mail.NewMessage()
	m.SetHeader("From", p.from)
	m.SetHeader("To", params.Identifier)
	m.SetHeader("Subject", p.subjectFor(host))
	m.SetBody("text/plain", fmt.Sprintf("Sign in to %s\n%s\n\n", host, params.URL))
	m.AddAlternative("text/html", html.String())
	return m, nil
}

func (p *Provider) subjectFor(host string) string {
	if strings.Contains(p.subject, "%s") {
		return fmt.Sprintf(p.subject, host)
	}
	return p.subject
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}

var htmlTemplate = template.Must(template.New("verification").Parse(`<body style="background: #f9f9f9;">
  <table width="100%" border="0" cellspacing="20" cellpadding="0" style="max-width: 600px; margin: auto;">
    <tr>
      <td align="center" style="padding: 10px 0; font-size: 22px; font-family: Helvetica, Arial, sans-serif;">
        Sign in to <strong>{{ .Host }}</strong>
      </td>
    </tr>
    <tr>
      <td align="center" style="padding: 20px 0;">
        <a href="{{ .URL }}" target="_blank" style="font-size: 18px; font-family: Helvetica, Arial, sans-serif; text-decoration: none; padding: 10px 20px; display: inline-block; font-weight: bold;">Sign in</a>
      </td>
    </tr>
    <tr>
      <td align="center" style="padding: 0 0 10px 0; font-size: 16px; font-family: Helvetica, Arial, sans-serif;">
        If you did not request this email you can safely ignore it.
      </td>
    </tr>
  </table>
</body>
`))

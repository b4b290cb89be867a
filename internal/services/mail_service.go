// services/mail_service.go
package services

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"
	"time"
)

type IMailService interface {
	// SendOrderConfirmation delivers the purchased keys. Keys arrive
	// already decrypted; this is the delivery moment.
	SendOrderConfirmation(to, orderNo string, keys []string) error
}

// SMTPConfig holds SMTP + branding config.
type SMTPConfig struct {
	Host       string // e.g. "smtp.gmail.com"
	Port       int    // e.g. 587 (STARTTLS) or 465 (SMTPS)
	Username   string
	Password   string
	From       string // envelope from, e.g. "no-reply@yourshop.com"
	FromName   string
	UseSSL     bool // true for SMTPS 465, false for STARTTLS 587
	RequireTLS bool // if true, fail if STARTTLS not available

	AppName string
}

type smtpMailService struct {
	cfg     SMTPConfig
	htmlTpl *template.Template
	textTpl *template.Template
}

func NewSMTPMailService(cfg SMTPConfig) (IMailService, error) {
	htmlTpl := template.Must(template.New("orderHTML").Parse(orderHTMLTemplate))
	textTpl := template.Must(template.New("orderText").Parse(orderTextTemplate))

	return &smtpMailService{
		cfg:     cfg,
		htmlTpl: htmlTpl,
		textTpl: textTpl,
	}, nil
}

type orderEmailData struct {
	OrderNo string
	Keys    []string
	AppName string
	Year    int
}

func (s *smtpMailService) SendOrderConfirmation(to, orderNo string, keys []string) error {
	data := orderEmailData{
		OrderNo: orderNo,
		Keys:    keys,
		AppName: s.cfg.AppName,
		Year:    time.Now().Year(),
	}

	var hb, tb bytes.Buffer
	if err := s.htmlTpl.Execute(&hb, data); err != nil {
		return err
	}
	if err := s.textTpl.Execute(&tb, data); err != nil {
		return err
	}

	subject := fmt.Sprintf("Your order %s: license keys inside", orderNo)
	return s.send(to, subject, hb.String(), tb.String())
}

const orderHTMLTemplate = `<!doctype html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width,initial-scale=1">
  <title>Order {{.OrderNo}}</title>
  <style>
    body { margin: 0; padding: 0; background: #0f172a; color: #ffffff;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; }
    .wrapper { width: 100%; padding: 40px 16px; box-sizing: border-box; }
    .container { max-width: 600px; margin: 0 auto; background: #1e293b;
      border-radius: 16px; overflow: hidden; }
    .header { padding: 32px 32px 24px; border-bottom: 1px solid rgba(148, 163, 184, 0.1); }
    .brand { font-weight: 700; letter-spacing: 0.5px; font-size: 22px; color: #60a5fa; text-transform: uppercase; }
    .hero { padding: 40px 32px; }
    h1 { margin: 0 0 16px; font-size: 26px; color: #f1f5f9; }
    p { margin: 0 0 20px; line-height: 1.7; color: #cbd5e1; font-size: 16px; }
    .keys { background: rgba(148, 163, 184, 0.08); border: 1px solid rgba(148, 163, 184, 0.15);
      border-radius: 8px; padding: 16px; margin-top: 24px; }
    .keys pre { margin: 0; font-family: "SF Mono", Menlo, Consolas, monospace;
      font-size: 14px; color: #a5f3fc; line-height: 1.8; white-space: pre-wrap; word-break: break-all; }
    .muted { color: #94a3b8; font-size: 13px; line-height: 1.6; margin: 0; }
    .footer { padding: 24px 32px; color: #64748b; font-size: 13px; text-align: center;
      border-top: 1px solid rgba(148, 163, 184, 0.1); }
  </style>
</head>
<body>
  <div class="wrapper">
    <div class="container">
      <div class="header">
        <div class="brand">{{.AppName}}</div>
      </div>
      <div class="hero">
        <h1>Thank you for your purchase</h1>
        <p>Your order <strong>{{.OrderNo}}</strong> is complete. Here are your license keys:</p>
        <div class="keys">
          <pre>{{range .Keys}}{{.}}
{{end}}</pre>
        </div>
        <p class="muted">Store these keys somewhere safe. This is the only copy we will send.</p>
      </div>
      <div class="footer">
        © {{.Year}} {{.AppName}}. All rights reserved.
      </div>
    </div>
  </div>
</body>
</html>`

const orderTextTemplate = `Thank you for your purchase!

Order: {{.OrderNo}}

Your license keys:
{{range .Keys}}  {{.}}
{{end}}
Store these keys somewhere safe. This is the only copy we will send.

{{.AppName}} (c) {{.Year}}
`

// ------------------- SMTP Send -------------------

func (s *smtpMailService) send(to, subject, htmlBody, textBody string) error {
	fromHeader := fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.From)
	date := time.Now().Format(time.RFC1123Z)
	boundary := fmt.Sprintf("mixed_%d", time.Now().UnixNano())

	var msg bytes.Buffer
	write := func(format string, a ...any) { _, _ = msg.WriteString(fmt.Sprintf(format, a...)) }

	// Headers
	write("From: %s\r\n", fromHeader)
	write("To: %s\r\n", to)
	write("Subject: %s\r\n", subject)
	write("Date: %s\r\n", date)
	write("MIME-Version: 1.0\r\n")
	write("Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	write("\r\n")

	// Plaintext part
	write("--%s\r\n", boundary)
	write("Content-Type: text/plain; charset=UTF-8\r\n")
	write("Content-Transfer-Encoding: 7bit\r\n\r\n")
	write("%s\r\n\r\n", textBody)

	// HTML part
	write("--%s\r\n", boundary)
	write("Content-Type: text/html; charset=UTF-8\r\n")
	write("Content-Transfer-Encoding: 7bit\r\n\r\n")
	write("%s\r\n\r\n", htmlBody)

	// End
	write("--%s--\r\n", boundary)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	if s.cfg.UseSSL {
		// SMTPS (implicit TLS, usually port 465)
		tlsCfg := &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}
		conn, err := tls.Dial("tcp", addr, tlsCfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		c, err := smtp.NewClient(conn, s.cfg.Host)
		if err != nil {
			return err
		}
		defer c.Quit()

		if err = c.Auth(auth); err != nil {
			return err
		}
		if err = c.Mail(s.cfg.From); err != nil {
			return err
		}
		if err = c.Rcpt(to); err != nil {
			return err
		}
		w, err := c.Data()
		if err != nil {
			return err
		}
		if _, err = w.Write(msg.Bytes()); err != nil {
			return err
		}
		return w.Close()
	}

	// STARTTLS (usually port 587)
	c, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer c.Quit()

	if ok, _ := c.Extension("STARTTLS"); ok {
		tlsCfg := &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}
		if err = c.StartTLS(tlsCfg); err != nil {
			return err
		}
	} else if s.cfg.RequireTLS {
		return fmt.Errorf("smtp server %s does not support STARTTLS", s.cfg.Host)
	}

	if err = c.Auth(auth); err != nil {
		return err
	}
	if err = c.Mail(s.cfg.From); err != nil {
		return err
	}
	if err = c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err = w.Write(msg.Bytes()); err != nil {
		return err
	}
	return w.Close()
}

package email

import (
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"net/smtp"
	"time"

	"lexcora-checkout-api/models"
)

type SMTPConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	From         string
	SalesAddress string
}

type SMTPService struct {
	config SMTPConfig
}

func NewSMTPService(config SMTPConfig) *SMTPService {
	return &SMTPService{
		config: config,
	}
}

func (s *SMTPService) SendEmail(to, subject, body string) error {
	if s.config.Host == "" {
		return fmt.Errorf("smtp host not configured")
	}

	tlsConfig := &tls.Config{
		ServerName: s.config.Host,
	}

	conn, err := net.DialTimeout("tcp", net.JoinHostPort(s.config.Host, s.config.Port), 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %v", err)
	}

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create SMTP client: %v", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err = client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %v", err)
		}
	}

	if s.config.Username != "" {
		auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("failed to authenticate: %v", err)
		}
	}

	if err = client.Mail(s.config.From); err != nil {
		return fmt.Errorf("failed to set sender: %v", err)
	}
	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %v", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to create email body writer: %v", err)
	}

	if _, err = w.Write([]byte(buildMessage(s.config.From, to, subject, body))); err != nil {
		return fmt.Errorf("failed to write email body: %v", err)
	}

	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close email body writer: %v", err)
	}

	return client.Quit()
}

func buildMessage(from, to, subject, body string) string {
	headers := fmt.Sprintf(
		"From: Lexcora <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n",
		from, to, encodeSubject(subject),
	)
	return headers + body
}

func (s *SMTPService) SendOTPEmail(to, name, code string, lang models.Language) error {
	subject, body := RenderOTPEmail(name, code, lang)
	return s.SendEmail(to, subject, body)
}

func (s *SMTPService) SendReceiptEmail(to string, receipt Receipt) error {
	subject, body := RenderReceiptEmail(receipt)
	return s.SendEmail(to, subject, body)
}

func (s *SMTPService) SendSalesNotification(subject, body string) error {
	if s.config.SalesAddress == "" {
		log.Printf("Sales address not configured, dropping notification %q", subject)
		return nil
	}
	return s.SendEmail(s.config.SalesAddress, subject, body)
}

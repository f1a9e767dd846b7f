package mail

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Mailer envia e-mails transacionais.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Message é um e-mail de texto simples.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// SMTPConfig descreve o servidor de saída.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer entrega mensagens via SMTP com STARTTLS quando o servidor oferece.
type SMTPMailer struct {
	cfg  SMTPConfig
	send sendFunc
}

// NewSMTPMailer cria o mailer; host vazio devolve nil.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Host == "" {
		return nil
	}
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

// Send monta a mensagem e entrega ao servidor configurado.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if m == nil || m.cfg.Host == "" {
		return errors.New("smtp não configurado")
	}
	if len(msg.To) == 0 {
		return errors.New("mensagem sem destinatário")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var a smtp.Auth
	if m.cfg.User != "" {
		a = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if err := m.send(addr, a, m.cfg.From, msg.To, buildMessage(m.cfg.From, msg, time.Now())); err != nil {
		return fmt.Errorf("smtp %s: %w", addr, err)
	}
	return nil
}

// LogMailer apenas registra as mensagens no log; usado quando não há SMTP.
type LogMailer struct {
	logger zerolog.Logger
}

// NewLogMailer cria o mailer de desenvolvimento.
func NewLogMailer(logger zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send registra destinatários, assunto e corpo.
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.Info().Strs("to", msg.To).Str("subject", msg.Subject).Str("body", msg.Body).Msg("email (não enviado)")
	return nil
}

func buildMessage(from string, msg Message, now time.Time) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(msg.To, ", ") + "\r\n")
	b.WriteString("Subject: " + encodeHeader(msg.Subject) + "\r\n")
	b.WriteString("Date: " + now.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

func encodeHeader(s string) string {
	for _, r := range s {
		if r > 127 {
			return mime.QEncoding.Encode("utf-8", s)
		}
	}
	return s
}

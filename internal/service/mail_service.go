package service

import (
	"context"
	"crypto/tls"
	"digcomp_backend/internal/config"
	"digcomp_backend/internal/util"
	"digcomp_backend/pkg/logger"
	"digcomp_backend/pkg/monitoring"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

const (
	ReportMailSubject = "Resultados de tu Cuestionario DigComp"
	reportMailBody    = "Hola %s,\n\nAdjunto encontrarás el informe con tus resultados del cuestionario DigComp.\n\nUn saludo."
	defaultUserName   = "Usuario"
)

// ReportFileName is the download and attachment name of a user's report.
func ReportFileName(userName string) string {
	return "informe_digcomp_" + strings.ToLower(util.SafeFileName(userName)) + ".pdf"
}

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// MailService delivers report PDFs over SMTP.
type MailService struct {
	Config config.MailConfig
	Sender mailSender
}

func NewMailService(cfg config.MailConfig) *MailService {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	d.TLSConfig = &tls.Config{
		ServerName:         cfg.Host,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}
	return &MailService{Config: cfg, Sender: d}
}

func (m *MailService) buildMessage(to, userName string, pdf []byte) *gomail.Message {
	name := strings.TrimSpace(userName)
	if name == "" {
		name = defaultUserName
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.Config.User, m.Config.FromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", ReportMailSubject)
	msg.SetBody("text/plain", fmt.Sprintf(reportMailBody, name))
	msg.Attach(ReportFileName(name),
		gomail.SetHeader(map[string][]string{"Content-Type": {util.MimePDF}}),
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(pdf)
			return err
		}),
	)
	return msg
}

// SendReport mails pdf to the given address. It is not retried.
func (m *MailService) SendReport(ctx context.Context, to, userName string, pdf []byte) error {
	if m.Config.Host == "" {
		return util.ErrMailNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := m.Sender.DialAndSend(m.buildMessage(to, userName, pdf)); err != nil {
		monitoring.ReportEmails.WithLabelValues("error").Inc()
		logger.Log.Error("Report e-mail failed",
			zap.String("to", to),
			zap.Error(err))
		return fmt.Errorf("%w: %v", util.ErrMailDelivery, err)
	}

	monitoring.ReportEmails.WithLabelValues("sent").Inc()
	logger.Log.Info("Report e-mail sent", zap.String("to", to))
	return nil
}

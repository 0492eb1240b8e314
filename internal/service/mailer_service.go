package service

import (
	"fmt"
	"log"
	"log/slog"
	"strconv"

	cfg "github.com/rcamargo/postwing/configs"
	"github.com/rcamargo/postwing/internal/models"
	"gopkg.in/gomail.v2"
)

// MailerService sends best-effort notifications about publish outcomes.
// When SMTP is not configured every send becomes a logged no-op.
type MailerService interface {
	SendPostPublished(user *models.User, post *models.Post) error
	SendPostFailed(user *models.User, post *models.Post) error
}

type mailerService struct {
	dialer *gomail.Dialer
	sender string
}

func NewMailerService(c cfg.Config) MailerService {
	s := &mailerService{sender: c.SMTP.SenderEmail}

	port, err := strconv.Atoi(c.SMTP.Port)
	if c.SMTP.Host == "" || c.SMTP.User == "" || c.SMTP.Password == "" || c.SMTP.SenderEmail == "" || err != nil {
		log.Println("Warning: email configuration incomplete, notifications disabled")
		return s
	}

	s.dialer = gomail.NewDialer(c.SMTP.Host, port, c.SMTP.User, c.SMTP.Password)
	return s
}

func (s *mailerService) SendPostPublished(user *models.User, post *models.Post) error {
	if s.dialer == nil {
		return nil
	}

	postLink := fmt.Sprintf("https://x.com/%s/status/%s", user.TwitterUsername, post.RemoteID)

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.sender)
	msg.SetHeader("To", user.Email)
	msg.SetHeader("Subject", "Your post was published")
	msg.SetBody("text/html", fmt.Sprintf(
		`<p>Hi %s,</p>
		<p>Your scheduled post was published successfully:</p>
		<blockquote>%s</blockquote>
		<p><a href="%s">View it on X</a></p>`,
		user.Name, post.Text, postLink))

	if err := s.dialer.DialAndSend(msg); err != nil {
		slog.Info(err.Error())
		return err
	}

	log.Printf("Publish notification sent to %s for post %d", user.Email, post.ID)
	return nil
}

func (s *mailerService) SendPostFailed(user *models.User, post *models.Post) error {
	if s.dialer == nil {
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.sender)
	msg.SetHeader("To", user.Email)
	msg.SetHeader("Subject", "Your post could not be published")
	msg.SetBody("text/html", fmt.Sprintf(
		`<p>Hi %s,</p>
		<p>We could not publish your scheduled post:</p>
		<blockquote>%s</blockquote>
		<p>Reason: %s</p>
		<p>Fix the schedule or reconnect your X account and the post will be retried.</p>`,
		user.Name, post.Text, post.ErrorMessage))

	if err := s.dialer.DialAndSend(msg); err != nil {
		slog.Info(err.Error())
		return err
	}

	log.Printf("Failure notification sent to %s for post %d", user.Email, post.ID)
	return nil
}

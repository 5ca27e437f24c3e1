package service

import (
	"context"
	"fmt"

	"vicidash-backend/internal/domain"
	"vicidash-backend/internal/logger"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// alertService mails operational notifications to the operations inbox.
// Send failures are logged and swallowed by callers; billing never waits on
// e-mail.
type alertService struct {
	apiKey    string
	fromEmail string
	fromName  string
	toEmail   string
	threshold float64
	enabled   bool
}

func NewAlertService(enabled bool, apiKey, fromEmail, fromName, toEmail string, lowBalanceThreshold float64) AlertService {
	return &alertService{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
		toEmail:   toEmail,
		threshold: lowBalanceThreshold,
		enabled:   enabled && apiKey != "" && toEmail != "",
	}
}

func (s *alertService) SendLowBalanceAlert(ctx context.Context, userID int32, previousBalance, currentBalance float64) error {
	if !s.enabled {
		return nil
	}
	// alert on the crossing only, not on every report below the line
	if previousBalance < s.threshold || currentBalance >= s.threshold {
		return nil
	}

	subject := fmt.Sprintf("Low balance warning: user %d below $%.2f", userID, s.threshold)
	plainText := fmt.Sprintf("User %d balance dropped from $%.2f to $%.2f, below the $%.2f threshold.\n\nTop up before the dialer runs dry.",
		userID, previousBalance, currentBalance, s.threshold)
	htmlContent := fmt.Sprintf(`
		<html>
			<body>
				<h2>Low Balance Warning</h2>
				<p>User <strong>%d</strong> balance dropped from <strong>$%.2f</strong> to <strong>$%.2f</strong>, below the $%.2f threshold.</p>
				<p>Top up before the dialer runs dry.</p>
			</body>
		</html>
	`, userID, previousBalance, currentBalance, s.threshold)

	return s.send(subject, plainText, htmlContent)
}

func (s *alertService) SendDailyStatement(ctx context.Context, userID int32, day string, result *domain.DeductionResult) error {
	if !s.enabled {
		return nil
	}

	subject := fmt.Sprintf("Daily usage statement for %s: user %d", day, userID)
	plainText := fmt.Sprintf("End-of-day deduction for user %d on %s:\n\nConnected calls: %d\nDeducted: $%.2f\nRemaining balance: $%.2f",
		userID, day, result.ConnectedCalls, result.Amount, result.NewBalance)
	htmlContent := fmt.Sprintf(`
		<html>
			<body>
				<h2>Daily Usage Statement (%s)</h2>
				<p>End-of-day deduction for user <strong>%d</strong>:</p>
				<ul>
					<li>Connected calls: %d</li>
					<li>Deducted: $%.2f</li>
					<li>Remaining balance: $%.2f</li>
				</ul>
			</body>
		</html>
	`, day, userID, result.ConnectedCalls, result.Amount, result.NewBalance)

	return s.send(subject, plainText, htmlContent)
}

func (s *alertService) send(subject, plainText, htmlContent string) error {
	logger.ExternalServiceCall("sendgrid", "send", "subject", subject, "to", s.toEmail)

	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail("", s.toEmail)
	message := mail.NewSingleEmail(from, subject, recipient, plainText, htmlContent)

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.Send(message)
	if err != nil {
		logger.ExternalServiceResult("sendgrid", "send", err, "subject", subject)
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		err := fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
		logger.ExternalServiceResult("sendgrid", "send", err, "subject", subject)
		return err
	}

	logger.ExternalServiceResult("sendgrid", "send", nil, "subject", subject)
	return nil
}

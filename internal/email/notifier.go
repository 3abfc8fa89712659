package email

import (
	"fmt"
	"time"

	"github.com/dropDatabas3/strongjohn/internal/observability/logger"
)

// Notifier envía avisos de seguridad al dueño de la cuenta.
// Los envíos son asíncronos: un fallo de SMTP nunca bloquea la operación.
type Notifier struct {
	sender  Sender
	appName string
}

func NewNotifier(sender Sender, appName string) *Notifier {
	if appName == "" {
		appName = "strongjohn"
	}
	return &Notifier{sender: sender, appName: appName}
}

func (n *Notifier) PasskeyAdded(to, friendlyName string) {
	if friendlyName == "" {
		friendlyName = "a new passkey"
	}
	n.dispatch(to, "New passkey added",
		fmt.Sprintf("A passkey (%s) was added to your account.", friendlyName))
}

func (n *Notifier) PasskeyRemoved(to, friendlyName string) {
	if friendlyName == "" {
		friendlyName = "a passkey"
	}
	n.dispatch(to, "Passkey removed",
		fmt.Sprintf("A passkey (%s) was removed from your account.", friendlyName))
}

func (n *Notifier) TwoFactorEnabled(to string) {
	n.dispatch(to, "Two-factor authentication enabled",
		"Two-factor authentication was enabled on your account.")
}

func (n *Notifier) TwoFactorDisabled(to string) {
	n.dispatch(to, "Two-factor authentication disabled",
		"Two-factor authentication was disabled on your account.")
}

func (n *Notifier) RecoveryCodesRotated(to string) {
	n.dispatch(to, "Recovery codes regenerated",
		"Your recovery codes were regenerated. Previous codes no longer work.")
}

func (n *Notifier) dispatch(to, subject, body string) {
	if n == nil || n.sender == nil || to == "" {
		return
	}
	when := time.Now().UTC().Format(time.RFC1123)
	text := fmt.Sprintf("%s\n\nWhen: %s\nIf this wasn't you, secure your account immediately.\n\n%s",
		body, when, n.appName)
	html := fmt.Sprintf(`<div style="font-family:sans-serif;max-width:480px">
  <h2 style="margin-bottom:4px">%s</h2>
  <p>%s</p>
  <p style="color:#666;font-size:13px">When: %s</p>
  <p>If this wasn't you, secure your account immediately.</p>
  <hr style="border:none;border-top:1px solid #eee">
  <p style="color:#999;font-size:12px">%s</p>
</div>`, subject, body, when, n.appName)

	go func() {
		if err := n.sender.Send(to, fmt.Sprintf("[%s] %s", n.appName, subject), html, text); err != nil {
			logger.L().Warn("security notification failed",
				logger.Component("Notifier"),
				logger.String("subject", subject),
				logger.Err(err),
			)
		}
	}()
}

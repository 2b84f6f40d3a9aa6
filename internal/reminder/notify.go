package reminder

import "github.com/gen2brain/beeep"

// Notifier delivers reminder events to the user.
type Notifier interface {
	Notify(title, message string) error
}

// BeeepNotifier shows desktop notifications.
type BeeepNotifier struct {
	// Alert plays the system sound along with the notification.
	Alert bool
}

// NewBeeepNotifier sets the application name shown by the desktop.
func NewBeeepNotifier(appName string, alert bool) *BeeepNotifier {
	beeep.AppName = appName
	return &BeeepNotifier{Alert: alert}
}

func (n *BeeepNotifier) Notify(title, message string) error {
	if n.Alert {
		return beeep.Alert(title, message, "")
	}
	return beeep.Notify(title, message, "")
}

// Deliver sends each event through n and returns the first error.
func Deliver(n Notifier, events []Event) error {
	var first error
	for _, e := range events {
		if err := n.Notify(e.Reminder.Title, e.Message()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

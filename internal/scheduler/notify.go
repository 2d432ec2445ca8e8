package scheduler

import "github.com/gen2brain/beeep"

type Notifier interface {
	Notify(title, message string) error
}

// DesktopNotifier shows native desktop notifications.
type DesktopNotifier struct{}

func (DesktopNotifier) Notify(title, message string) error {
	return beeep.Notify(title, message, "")
}

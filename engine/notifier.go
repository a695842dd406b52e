package engine

// Notifier is a concurrency primitive for informing a single consumer that
// work is pending. Notifications are coalesced: any number of Notify calls
// between two reads of the channel result in one pending notification.
// Notify never blocks. Passing a Notifier by value is safe, as all copies
// share the same channel.
type Notifier struct {
	notifier chan struct{}
}

// NewNotifier instantiates a Notifier. Notifiers essentially behave like
// channels with a buffer of size 1.
func NewNotifier() Notifier {
	// the 1 message buffer is important to avoid the race condition.
	// the consumer might decide to listen to the notify channel, and drain the messages in the
	// message store, however there is a blind period start from the point the consumer learned
	// the message store is empty to the point the consumer start listening to the notifier channel
	// again. During this blind period, if the notifier had no buffer, then `doNotify` call will not
	// able to push message to the notifier channel, therefore has to drop the message and cause the
	// consumer waiting forever with unconsumed message in the message store.
	return Notifier{make(chan struct{}, 1)}
}

// Notify sends a notification without blocking.
func (n Notifier) Notify() {
	select {
	// to prevent from getting blocked by dropping the notification if
	// there is no handler subscribing the channel.
	case n.notifier <- struct{}{}:
	default:
	}
}

// Channel returns a channel for receiving notifications.
func (n Notifier) Channel() <-chan struct{} {
	return n.notifier
}

package connectivity

import "context"

// Notifier delivers a signal whenever the OS reports a network change. The
// channel is closed when ctx is done or the source fails.
type Notifier interface {
	Notify(ctx context.Context) (<-chan struct{}, error)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context) (<-chan struct{}, error) {
	return nil, nil
}

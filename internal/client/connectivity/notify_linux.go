//go:build linux

package connectivity

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// PlatformNotifier listens on a netlink route socket for link and address
// changes.
func PlatformNotifier() Notifier {
	return netlinkNotifier{}
}

type netlinkNotifier struct{}

func (netlinkNotifier) Notify(ctx context.Context) (<-chan struct{}, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.NETLINK_ROUTE)
	if err != nil {
		return nil, fmt.Errorf("netlink socket: %w", err)
	}

	sa := &unix.SockaddrNetlink{
		Family: unix.AF_NETLINK,
		Groups: unix.RTMGRP_LINK | unix.RTMGRP_IPV4_IFADDR | unix.RTMGRP_IPV6_IFADDR,
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("netlink bind: %w", err)
	}

	// wake up periodically to notice ctx cancellation
	tv := unix.Timeval{Sec: 1}
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("netlink timeout: %w", err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer unix.Close(fd)

		buf := make([]byte, 4096)
		for ctx.Err() == nil {
			n, _, err := unix.Recvfrom(fd, buf, 0)
			if err != nil {
				if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EINTR) {
					continue
				}
				return
			}
			if n == 0 {
				continue
			}
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()

	return out, nil
}

//go:build linux

package polldough

import (
	"time"

	"golang.org/x/sys/unix"
)

// epollPoller implements poller on top of Linux epoll. Grounded on the
// epoll poller style used by trpc-group/tnet: one epoll instance, events
// re-armed with EpollCtl(MOD) as interest changes, EpollWait with a
// millisecond timeout for the generic Wait path.
type epollPoller struct {
	fd int
}

func newOSPoller() (poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollPoller{fd: fd}, nil
}

func epollEvents(wantRead, wantWrite bool) uint32 {
	var events uint32 = unix.EPOLLRDHUP
	if wantRead {
		events |= unix.EPOLLIN
	}
	if wantWrite {
		events |= unix.EPOLLOUT
	}
	return events
}

func (p *epollPoller) add(fd int, wantRead, wantWrite bool) error {
	ev := unix.EpollEvent{Events: epollEvents(wantRead, wantWrite), Fd: int32(fd)}
	return unix.EpollCtl(p.fd, unix.EPOLL_CTL_ADD, fd, &ev)
}

func (p *epollPoller) modify(fd int, wantRead, wantWrite bool) error {
	ev := unix.EpollEvent{Events: epollEvents(wantRead, wantWrite), Fd: int32(fd)}
	return unix.EpollCtl(p.fd, unix.EPOLL_CTL_MOD, fd, &ev)
}

func (p *epollPoller) remove(fd int) error {
	err := unix.EpollCtl(p.fd, unix.EPOLL_CTL_DEL, fd, nil)
	if err == unix.ENOENT {
		return nil
	}
	return err
}

func (p *epollPoller) wait(timeout *time.Duration, out []pollReadyEvent) (int, error) {
	timeoutMs := -1
	if timeout != nil {
		timeoutMs = int(timeout.Milliseconds())
	}

	raw := make([]unix.EpollEvent, len(out))
	n, err := unix.EpollWait(p.fd, raw, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}

	for i := 0; i < n; i++ {
		out[i] = pollReadyEvent{
			fd:       int(raw[i].Fd),
			readable: raw[i].Events&(unix.EPOLLIN|unix.EPOLLERR|unix.EPOLLHUP|unix.EPOLLRDHUP) != 0,
			writable: raw[i].Events&(unix.EPOLLOUT|unix.EPOLLERR|unix.EPOLLHUP) != 0,
		}
	}
	return n, nil
}

func (p *epollPoller) close() error {
	return unix.Close(p.fd)
}

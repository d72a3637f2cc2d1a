//go:build darwin || freebsd || netbsd || openbsd || dragonfly

package polldough

import (
	"time"

	"golang.org/x/sys/unix"
)

// kqueuePoller implements poller on top of BSD/Darwin kqueue. Read and
// write readiness are tracked as separate filters (EVFILT_READ/
// EVFILT_WRITE) since kqueue, unlike epoll, has no single combined
// interest mask per fd.
type kqueuePoller struct {
	fd int
}

func newOSPoller() (poller, error) {
	fd, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	unix.CloseOnExec(fd)
	return &kqueuePoller{fd: fd}, nil
}

func (p *kqueuePoller) changeFilter(fd int, filter int16, enable bool) error {
	flags := uint16(unix.EV_DELETE)
	if enable {
		flags = unix.EV_ADD | unix.EV_ENABLE
	}
	ev := unix.Kevent_t{
		Ident:  uint64(fd),
		Filter: filter,
		Flags:  flags,
	}
	_, err := unix.Kevent(p.fd, []unix.Kevent_t{ev}, nil, nil)
	if err == unix.ENOENT && !enable {
		return nil
	}
	return err
}

func (p *kqueuePoller) add(fd int, wantRead, wantWrite bool) error {
	return p.modify(fd, wantRead, wantWrite)
}

func (p *kqueuePoller) modify(fd int, wantRead, wantWrite bool) error {
	if err := p.changeFilter(fd, unix.EVFILT_READ, wantRead); err != nil {
		return err
	}
	return p.changeFilter(fd, unix.EVFILT_WRITE, wantWrite)
}

func (p *kqueuePoller) remove(fd int) error {
	p.changeFilter(fd, unix.EVFILT_READ, false)
	p.changeFilter(fd, unix.EVFILT_WRITE, false)
	return nil
}

func (p *kqueuePoller) wait(timeout *time.Duration, out []pollReadyEvent) (int, error) {
	var ts *unix.Timespec
	if timeout != nil {
		t := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &t
	}

	raw := make([]unix.Kevent_t, len(out))
	n, err := unix.Kevent(p.fd, nil, raw, ts)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}

	merged := make(map[int]*pollReadyEvent, n)
	order := make([]int, 0, n)
	for i := 0; i < n; i++ {
		fd := int(raw[i].Ident)
		e, ok := merged[fd]
		if !ok {
			e = &pollReadyEvent{fd: fd}
			merged[fd] = e
			order = append(order, fd)
		}
		switch raw[i].Filter {
		case unix.EVFILT_READ:
			e.readable = true
		case unix.EVFILT_WRITE:
			e.writable = true
		}
	}
	for i, fd := range order {
		out[i] = *merged[fd]
	}
	return len(order), nil
}

func (p *kqueuePoller) close() error {
	return unix.Close(p.fd)
}

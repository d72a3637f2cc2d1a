// Package polldough implements a completion-based asynchronous I/O reactor.
//
// It presents one uniform register/submit/wait/notify interface over three
// backends: Linux io_uring, generic POSIX readiness polling (epoll on
// Linux, kqueue on the BSDs/Darwin), and Windows IOCP. Callers register a
// Source, submit Op values (Read, Write) under a caller-chosen key, and
// drain completed Events from Wait.
package polldough

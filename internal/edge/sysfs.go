//go:build linux

package edge

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"
)

// resyncMillis bounds how long one epoll wait may last. Lines registered or
// unregistered while a wait is in flight are honored within this interval,
// and Read wakes at least this often when no lines are armed at all.
const resyncMillis = 1000

// SysfsSource delivers edge events for exported sysfs GPIO lines. Each
// registered value file is armed for both-edge interrupts and watched with
// epoll; an edge shows up as an exceptional condition (EPOLLPRI) on the
// file.
type SysfsSource struct {
	mu      sync.Mutex
	epfd    int
	byFD    map[int]*sysfsLine
	byLine  map[int]*sysfsLine
	pending []Event
	closed  bool
}

type sysfsLine struct {
	line int
	file *os.File
}

// NewSysfsSource creates a source with no lines registered.
func NewSysfsSource() (*SysfsSource, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("create epoll instance: %w", err)
	}
	return &SysfsSource{
		epfd:   epfd,
		byFD:   make(map[int]*sysfsLine),
		byLine: make(map[int]*sysfsLine),
	}, nil
}

// Register arms both-edge interrupts on the line's sibling edge file, opens
// the value file and adds it to the epoll set.
func (s *SysfsSource) Register(path string, line int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byLine[line]; ok {
		return fmt.Errorf("edge: line %d already registered", line)
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	edgePath := filepath.Join(filepath.Dir(resolved), "edge")
	if err := os.WriteFile(edgePath, []byte("both"), 0); err != nil {
		return fmt.Errorf("arm %s: %w", edgePath, err)
	}

	f, err := os.Open(resolved)
	if err != nil {
		return fmt.Errorf("open %s: %w", resolved, err)
	}
	// Drain the current value so a line that is high at startup does not
	// produce an immediate spurious event. A failure here surfaces on the
	// first real read.
	var drain [16]byte
	_, _ = f.Read(drain[:])

	fd := int(f.Fd())
	ev := unix.EpollEvent{Events: unix.EPOLLPRI, Fd: int32(fd)}
	if err := unix.EpollCtl(s.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		f.Close()
		return fmt.Errorf("watch %s: %w", resolved, err)
	}

	l := &sysfsLine{line: line, file: f}
	s.byFD[fd] = l
	s.byLine[line] = l
	return nil
}

// Unregister removes the line from the epoll set and closes its value file.
func (s *SysfsSource) Unregister(line int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.byLine[line]
	if !ok {
		return ErrNotRegistered
	}
	fd := int(l.file.Fd())
	unix.EpollCtl(s.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	delete(s.byFD, fd)
	delete(s.byLine, line)
	return l.file.Close()
}

// Registered reports whether the line is currently armed.
func (s *SysfsSource) Registered(line int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byLine[line]
	return ok
}

// Read blocks until an edge arrives on any registered line. A single wait
// can surface several ready lines; the extras are queued for later Reads.
func (s *SysfsSource) Read() (Event, error) {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return Event{}, ErrClosed
		}
		if len(s.pending) > 0 {
			ev := s.pending[0]
			s.pending = s.pending[1:]
			s.mu.Unlock()
			return ev, nil
		}
		epfd := s.epfd
		s.mu.Unlock()

		var ready [8]unix.EpollEvent
		n, err := unix.EpollWait(epfd, ready[:], resyncMillis)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return Event{}, fmt.Errorf("wait for edges: %w", err)
		}

		s.mu.Lock()
		for i := 0; i < n; i++ {
			l, ok := s.byFD[int(ready[i].Fd)]
			if !ok {
				// Unregistered while the wait was in flight.
				continue
			}
			level, err := readLevel(l.file)
			if err != nil {
				s.mu.Unlock()
				return Event{}, fmt.Errorf("read line %d: %w", l.line, err)
			}
			s.pending = append(s.pending, Event{Line: l.line, Level: level})
		}
		s.mu.Unlock()
	}
}

// readLevel rereads a value file from the start and parses the level digit.
func readLevel(f *os.File) (int, error) {
	var buf [1]byte
	if _, err := f.ReadAt(buf[:], 0); err != nil {
		return 0, err
	}
	switch buf[0] {
	case '0':
		return 0, nil
	case '1':
		return 1, nil
	}
	return 0, fmt.Errorf("unexpected level byte %q", buf[0])
}

// Close releases the epoll instance and every registered value file.
func (s *SysfsSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for _, l := range s.byLine {
		l.file.Close()
	}
	s.byFD = make(map[int]*sysfsLine)
	s.byLine = make(map[int]*sysfsLine)
	return unix.Close(s.epfd)
}

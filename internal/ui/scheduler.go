package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// ProgramScheduler is a [results.Scheduler] that runs functions inside the bubbletea event loop.
//
// Schedule never blocks; queued functions are delivered by the command returned from
// [ProgramScheduler.Wait] and run by [Model.Update] in the order they were scheduled.
type ProgramScheduler struct {
	mu    sync.Mutex
	tasks []func()
	ready chan struct{}
	done  chan struct{}
	once  sync.Once
}

func NewProgramScheduler() *ProgramScheduler {
	return &ProgramScheduler{ready: make(chan struct{}, 1), done: make(chan struct{})}
}

func (s *ProgramScheduler) Schedule(fn func()) {
	s.mu.Lock()
	s.tasks = append(s.tasks, fn)
	s.mu.Unlock()

	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// Wait returns a command that blocks until work is queued, then delivers all of it as one message.
func (s *ProgramScheduler) Wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-s.ready:
		case <-s.done:
			return nil
		}
		return scheduledMsg(s.take())
	}
}

// Stop releases a pending [ProgramScheduler.Wait].
func (s *ProgramScheduler) Stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *ProgramScheduler) take() []func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := s.tasks
	s.tasks = nil
	return tasks
}

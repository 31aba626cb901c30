// Package workdir scopes changes of the process working directory.
package workdir

import (
	"errors"
	"fmt"
	"os"
)

// ErrEmptyStack is returned by Pop when no directory was pushed.
var ErrEmptyStack = errors.New("working directory stack is empty")

// Stack remembers previous working directories so that every Push can be
// undone by a matching Pop. The zero value is not usable; use NewStack.
type Stack struct {
	dirs  []string
	getwd func() (string, error)
	chdir func(string) error
}

// NewStack creates a Stack operating on the process working directory.
func NewStack() *Stack {
	return &Stack{getwd: os.Getwd, chdir: os.Chdir}
}

// Push records the current working directory and changes to dir.
// On failure the stack and the working directory are left unchanged.
func (s *Stack) Push(dir string) error {
	cwd, err := s.getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	if err := s.chdir(dir); err != nil {
		return fmt.Errorf("change directory to %s: %w", dir, err)
	}
	s.dirs = append(s.dirs, cwd)
	return nil
}

// Pop returns to the directory recorded by the most recent Push.
func (s *Stack) Pop() error {
	if len(s.dirs) == 0 {
		return ErrEmptyStack
	}
	last := s.dirs[len(s.dirs)-1]
	s.dirs = s.dirs[:len(s.dirs)-1]
	if err := s.chdir(last); err != nil {
		return fmt.Errorf("restore directory %s: %w", last, err)
	}
	return nil
}

// Depth returns the number of directories waiting to be restored.
func (s *Stack) Depth() int {
	return len(s.dirs)
}

// Within runs fn with dir as the working directory and restores the previous
// directory afterwards, whether fn returns an error or panics.
func (s *Stack) Within(dir string, fn func() error) (err error) {
	if err := s.Push(dir); err != nil {
		return err
	}
	defer func() {
		if popErr := s.Pop(); popErr != nil && err == nil {
			err = popErr
		}
	}()
	return fn()
}

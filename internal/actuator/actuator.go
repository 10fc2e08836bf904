// Package actuator delivers accept/deny codes to the door hardware.
package actuator

import (
	"context"
	stderrors "errors"
	"fmt"
	"log"
)

// Code is the single-byte decision sent to the door.
type Code byte

const (
	Deny   Code = 0
	Accept Code = 1
)

func (c Code) String() string {
	switch c {
	case Deny:
		return "deny"
	case Accept:
		return "accept"
	}
	return fmt.Sprintf("code(%d)", byte(c))
}

// ASCII is the character form used on text channels, '0' or '1'.
func (c Code) ASCII() byte { return '0' + byte(c) }

// Actuator writes one decision code to a physical or logical channel.
type Actuator interface {
	Write(ctx context.Context, c Code) error
	Close() error
}

// Named attaches a label used in log lines.
type Named struct {
	Name string
	Actuator
}

// Multi sends each code to every actuator. A failing actuator does not stop
// the others.
type Multi []Named

func (m Multi) Write(ctx context.Context, c Code) error {
	var errs []error
	for _, a := range m {
		if err := a.Write(ctx, c); err != nil {
			log.Printf("actuator: %s write %s failed: %v", a.Name, c, err)
			errs = append(errs, fmt.Errorf("%s: %w", a.Name, err))
		}
	}
	return stderrors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, a := range m {
		if err := a.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", a.Name, err))
		}
	}
	return stderrors.Join(errs...)
}

// Log only records codes.
type Log struct {
	Printf func(format string, args ...any)
}

func (l Log) Write(_ context.Context, c Code) error {
	printf := l.Printf
	if printf == nil {
		printf = log.Printf
	}
	printf("actuator: door %s (%d)", c, byte(c))
	return nil
}

func (Log) Close() error { return nil }

// internal/sched/class.go

package sched

import (
	"fmt"
	"strings"
)

// Class is the priority class an entity is scheduled under.
// Lower values are more urgent.
type Class int

const (
	ClassRealtime Class = iota
	ClassInteractive
	ClassNormal
	ClassDaemon
)

// NumClasses is the fixed number of priority classes.
const NumClasses = 4

func (c Class) String() string {
	switch c {
	case ClassRealtime:
		return "realtime"
	case ClassInteractive:
		return "interactive"
	case ClassNormal:
		return "normal"
	case ClassDaemon:
		return "daemon"
	default:
		return "unknown"
	}
}

// Lower returns the class an entity dispatched from c is demoted to.
// Daemon is the floor and maps to itself.
func (c Class) Lower() Class {
	if c >= ClassDaemon {
		return ClassDaemon
	}
	return c + 1
}

// ParseClass maps a config name ("realtime", "interactive", ...) to a Class.
func ParseClass(s string) (Class, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "realtime", "rt":
		return ClassRealtime, nil
	case "interactive":
		return ClassInteractive, nil
	case "normal", "":
		return ClassNormal, nil
	case "daemon":
		return ClassDaemon, nil
	}
	return ClassNormal, fmt.Errorf("unknown priority class %q", s)
}

// Classify maps an entity to its priority class. Declared priorities outside
// the known range are clamped, so every entity has exactly one class.
func Classify(e Entity) Class {
	p := e.Priority()
	if p < int(ClassRealtime) {
		return ClassRealtime
	} else if p > int(ClassDaemon) {
		return ClassDaemon
	}
	return Class(p)
}

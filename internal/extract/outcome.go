package extract

import "fmt"

// Status tags the result of a single extraction strategy
type Status int

const (
	// StatusMissing means the strategy's layout does not carry the field
	StatusMissing Status = iota
	// StatusFound means the strategy produced a value
	StatusFound
	// StatusMalformed means the structure was there but could not be read
	StatusMalformed
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusMalformed:
		return "malformed"
	default:
		return "missing"
	}
}

// Outcome is what a strategy reports for one field
type Outcome[T any] struct {
	Status Status
	Value  T
	Err    error
}

// Found wraps a value produced by a strategy
func Found[T any](v T) Outcome[T] {
	return Outcome[T]{Status: StatusFound, Value: v}
}

// Missing reports that the field is absent for this strategy
func Missing[T any]() Outcome[T] {
	return Outcome[T]{Status: StatusMissing}
}

// Malformed reports a structural failure
func Malformed[T any](err error) Outcome[T] {
	if err == nil {
		err = fmt.Errorf("malformed")
	}
	return Outcome[T]{Status: StatusMalformed, Err: err}
}

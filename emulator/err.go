package emulator

import (
	"github.com/ezrec/iasim/translate"
)

var f = translate.From

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Ip     int
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	return f("pc %d line %d %v", err.Ip, err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

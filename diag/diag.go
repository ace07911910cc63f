package diag

import (
	"fmt"
	"sync"
)

// Sink receives a fatal diagnostic and must not return.
type Sink func(msg string)

// Abort is the payload the default sink panics with. The driver recovers
// it at the top of a compilation and turns it into an exit status.
type Abort struct {
	Msg string
}

func (a *Abort) Error() string { return a.Msg }

var (
	mu   sync.Mutex
	sink Sink = func(msg string) {
		panic(&Abort{Msg: msg})
	}
)

// SetSink installs a replacement sink. The sink must not return; a sink
// that does return is a programming error and the process panics anyway.
func SetSink(s Sink) {
	mu.Lock()
	defer mu.Unlock()
	if s != nil {
		sink = s
	}
}

// Fatalf formats a message, delivers it to the installed sink and never
// returns. After a call to Fatalf no further core code executes in this
// compilation.
func Fatalf(format string, args ...any) {
	mu.Lock()
	s := sink
	mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	s(msg)
	panic(&Abort{Msg: msg}) // sink returned; enforce the contract
}

// Recover converts an Abort raised by the default sink into an error.
// Use it in a deferred closure around a compilation:
//
//	defer diag.Recover(&err)
func Recover(errp *error) {
	if r := recover(); r != nil {
		if a, ok := r.(*Abort); ok {
			*errp = a
			return
		}
		panic(r)
	}
}

package protocol

import "runtime"

// SendOp is an asynchronous send. The frame was staged when the operation
// was created; Poll and Wait push it into the stream.
type SendOp struct {
	eng       *Engine
	completed bool
	err       error
}

// Poll advances the write without blocking and returns true once the whole
// frame has been transmitted (or the operation failed; see Err). Polling a
// completed operation is a programming error and panics.
func (o *SendOp) Poll() bool {
	if o.completed {
		panic("xwire: Poll on a completed send operation")
	}

	done, err := o.eng.drv.ContinueWrite()
	if err != nil {
		o.err = err
		o.completed = true
		return true
	}

	if done {
		o.completed = true
	}

	return o.completed
}

// Wait blocks until the frame is fully transmitted and returns the
// operation's error, if any.
func (o *SendOp) Wait() error {
	for !o.completed {
		if o.Poll() {
			break
		}

		runtime.Gosched()
	}

	return o.err
}

// Completed reports whether the operation has finished, successfully or not.
func (o *SendOp) Completed() bool {
	return o.completed
}

// Err returns the error the operation captured, if any. Meaningful once
// Completed reports true.
func (o *SendOp) Err() error {
	return o.err
}

// Cancel is not supported; close the underlying stream instead.
func (o *SendOp) Cancel() {
	panic("xwire: cancellation is not implemented")
}

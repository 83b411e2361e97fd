package errs

/*
	A error type for an operation on a pool name that was never registered
*/
type UnknownPoolErr struct {
	msg string
}

func (e UnknownPoolErr) Error() string {
	return e.msg
}

func NewUnknownPoolErr(cause string) UnknownPoolErr {
	return UnknownPoolErr{
		msg: cause,
	}
}

func IsUnknownPoolErr(e error) bool {
	_, ok := e.(UnknownPoolErr)
	return ok
}

package errs

/*
	A error type for a reserve that found no idle connection in time
*/
type ReserveTimeoutErr struct {
	msg string
}

func (e ReserveTimeoutErr) Error() string {
	return e.msg
}

func NewReserveTimeoutErr(cause string) ReserveTimeoutErr {
	return ReserveTimeoutErr{
		msg: cause,
	}
}

func IsReserveTimeoutErr(e error) bool {
	_, ok := e.(ReserveTimeoutErr)
	return ok
}

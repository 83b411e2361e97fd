package errs

/*
	A error type for a pool or connection started without configuration
*/
type ConfigMissingErr struct {
	msg string
}

func (e ConfigMissingErr) Error() string {
	return e.msg
}

func NewConfigMissingErr(cause string) ConfigMissingErr {
	return ConfigMissingErr{
		msg: cause,
	}
}

func IsConfigMissingErr(e error) bool {
	_, ok := e.(ConfigMissingErr)
	return ok
}

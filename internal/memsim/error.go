package memsim

var (
	ErrNoMemory      = &SimError{"no free block large enough for allocation"}
	ErrUnknownPID    = &SimError{"process holds no allocated blocks"}
	ErrInvalidPID    = &SimError{"pid is reserved for free blocks"}
	ErrInvalidSize   = &SimError{"allocation size must be positive"}
	ErrInvalidPolicy = &SimError{"unknown placement policy"}
)

type SimError struct {
	Msg string
}

func (e *SimError) Error() string {
	return e.Msg
}

func (e *SimError) Is(target error) bool {
	if targetErr, ok := target.(*SimError); ok {
		return e.Msg == targetErr.Msg
	}
	return false
}

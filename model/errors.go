package model

import "github.com/pkg/errors"

var (
	ErrIo         = errors.New("io error")
	ErrParse      = errors.New("parse error")
	ErrOutOfRange = errors.New("out of range")
	ErrState      = errors.New("invalid state")
	ErrAudio      = errors.New("audio error")
	ErrSoundFont  = errors.New("soundfont error")
)

// KindError keeps both the error kind and the underlying cause so that
// errors.Is matches either.
type KindError struct {
	Kind error
	Err  error
}

func (e *KindError) Error() string {
	return e.Kind.Error() + ": " + e.Err.Error()
}

func (e *KindError) Unwrap() error {
	return e.Err
}

func (e *KindError) Is(target error) bool {
	return target == e.Kind
}

func WithKind(kind error, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &KindError{Kind: kind, Err: errors.Wrapf(err, format, args...)}
}

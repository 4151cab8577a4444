package container

import (
	"io"
)

// Closer is io.Closer with a name so close failures can say which
// resource refused to go down.
type Closer interface {
	io.Closer

	Name() string
}

type NamedCloser struct {
	name   string
	closer io.Closer
}

var _ Closer = (*NamedCloser)(nil)

func NewNamedCloser(name string, closer io.Closer) *NamedCloser {
	return &NamedCloser{
		name:   name,
		closer: closer,
	}
}

func (d *NamedCloser) Close() error {
	return d.closer.Close()
}

func (d *NamedCloser) Name() string {
	return d.name
}

package ioutil

import "io"

// MultiCloser runs each closer in order. Every closer runs even if an earlier one fails;
// the last error is returned.
type MultiCloser []func() error

func (m MultiCloser) Close() error {
	var err error
	for _, closer := range m {
		if e := closer(); e != nil {
			err = e
		}
	}
	return err
}

// ReaderWithClosers returns r as an io.ReadCloser whose Close runs closers in order.
func ReaderWithClosers(r io.Reader, closers ...func() error) io.ReadCloser {
	return &readCloser{
		Reader: r,
		closer: MultiCloser(closers),
	}
}

type readCloser struct {
	io.Reader
	closer MultiCloser
}

var _ io.ReadCloser = (*readCloser)(nil)

func (rc *readCloser) Close() error {
	return rc.closer.Close()
}

// WriterWithClosers returns w as an io.WriteCloser whose Close runs closers in order.
func WriterWithClosers(w io.Writer, closers ...func() error) io.WriteCloser {
	return &writeCloser{
		Writer: w,
		closer: MultiCloser(closers),
	}
}

type writeCloser struct {
	io.Writer
	closer MultiCloser
}

var _ io.WriteCloser = (*writeCloser)(nil)

func (wc *writeCloser) Close() error {
	return wc.closer.Close()
}

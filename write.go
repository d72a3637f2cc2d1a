package polldough

// Write writes a buffer's contents to a Source.
type Write[B IoBuf] struct {
	source Raw
	ty     SourceType
	buf    B
	offset int64
	seeked bool // polling backend only: has the initial lseek happened?
}

// NewWrite creates a Write of buf to dst. The offset defaults to 0 and is
// meaningful only for SourceFile sources; use Offset to change it.
func NewWrite[B IoBuf](dst Source, buf B) *Write[B] {
	return &Write[B]{source: dst.Raw(), ty: dst.SourceType(), buf: buf}
}

// Offset sets the file offset to write at. It has no effect on sockets.
func (w *Write[B]) Offset(offset int64) *Write[B] {
	w.offset = offset
	return w
}

// Source implements Op.
func (w *Write[B]) Source() Raw { return w.source }

// SourceType implements Op.
func (w *Write[B]) SourceType() SourceType { return w.ty }

// IntoBuf retrieves the inner buffer. It must only be called once the
// operation's completion has been observed through Wait.
func (w *Write[B]) IntoBuf() B { return w.buf }

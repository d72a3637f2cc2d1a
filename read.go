package polldough

// Read reads from a Source into a buffer.
type Read[B BufMut] struct {
	source Raw
	ty     SourceType
	buf    B
	offset int64
	seeked bool // polling backend only: has the initial lseek happened?
}

// NewRead creates a Read of buf from src. The offset defaults to 0 and is
// meaningful only for SourceFile sources; use Offset to change it.
func NewRead[B BufMut](src Source, buf B) *Read[B] {
	return &Read[B]{source: src.Raw(), ty: src.SourceType(), buf: buf}
}

// Offset sets the file offset to read from. It has no effect on sockets.
func (r *Read[B]) Offset(offset int64) *Read[B] {
	r.offset = offset
	return r
}

// Source implements Op.
func (r *Read[B]) Source() Raw { return r.source }

// SourceType implements Op.
func (r *Read[B]) SourceType() SourceType { return r.ty }

// IntoBuf retrieves the inner buffer. It must only be called once the
// operation's completion has been observed through Wait — the buffer's
// contents are undefined before then.
func (r *Read[B]) IntoBuf() B { return r.buf }

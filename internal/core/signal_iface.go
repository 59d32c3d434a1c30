package core

// Frame is an encoded push frame.
type Frame []byte

// SignalConnection abstracts the push transport of one member.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

package streaming

import "context"

// Bus adapts Directory to mailbox.Publisher (mailbox/types.go): every
// successful mailbox enqueue calls Publish so a live subscriber hears
// about it immediately instead of waiting for the next list_messages
// poll.
type Bus struct {
	dir *Directory
}

// NewBus constructs a Bus over dir.
func NewBus(dir *Directory) *Bus {
	return &Bus{dir: dir}
}

// Publish implements mailbox.Publisher.
func (b *Bus) Publish(_ context.Context, recipientDIDHash string, _ string, packed []byte) {
	b.dir.Publish(recipientDIDHash, packed, false)
}

// Package broadcast fans values out to channel subscribers without ever
// blocking the sender.
//
// The router publishes each committed transition through a MemoryBroadcaster
// so that followers such as the snapshot recorder can track the current state
// without registering synchronous listeners.
//
//	b := broadcast.NewMemoryBroadcaster[router.Commit](16)
//	sub := b.Subscribe(ctx)
//	for msg := range sub.Receive(ctx) {
//		save(msg.Data)
//	}
//
// A subscription ends, and its channel is closed, when its context is
// cancelled, when it falls a full buffer behind, or when the broadcaster is
// closed. Dropped reports how many subscribers fell behind.
package broadcast

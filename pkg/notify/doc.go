// Package notify provides a non-blocking in-memory bus publishing engine
// transitions and error records to any number of subscribers.
//
// The bus is the default implementation of the engine's Notifier
// collaborator. Delivery is best-effort: when a subscriber's buffer is
// full the message is dropped for that subscriber, so a slow or stalled
// consumer can never hold up dispatch. Subscriptions are explicit tokens
// the owner must release via Close; there is no implicit cleanup.
//
//	hub := notify.NewHub(64)
//	defer hub.Close()
//
//	sub := hub.Transitions().Subscribe()
//	defer sub.Close()
//
//	eng := engine.MustNew(table, engine.WithNotifier(hub))
//
//	for t := range sub.C() {
//	    log.Printf("%s -> %s via %s", t.From, t.To, t.Event)
//	}
package notify

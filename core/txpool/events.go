package txpool

import (
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/dominant-strategies/go-layerpool/core/types"
)

//go:generate mockgen -destination=mocks/mock_listeners.go -package=mocks github.com/dominant-strategies/go-layerpool/core/txpool AddedListener,DroppedListener

// SubscriptionID identifies a registered listener.
type SubscriptionID uint64

// AddedListener is notified of every transaction accepted by the pool,
// replacements included.
type AddedListener interface {
	OnTransactionAdded(tx *types.Transaction)
}

// DroppedListener is notified of every transaction that leaves the pool.
type DroppedListener interface {
	OnTransactionDropped(tx *types.Transaction, reason RemovalReason)
}

// AddedListenerFunc adapts a function to AddedListener.
type AddedListenerFunc func(tx *types.Transaction)

func (f AddedListenerFunc) OnTransactionAdded(tx *types.Transaction) { f(tx) }

// DroppedListenerFunc adapts a function to DroppedListener.
type DroppedListenerFunc func(tx *types.Transaction, reason RemovalReason)

func (f DroppedListenerFunc) OnTransactionDropped(tx *types.Transaction, reason RemovalReason) {
	f(tx, reason)
}

type txEvent struct {
	tx      *types.Transaction
	dropped bool
	reason  RemovalReason
}

// subscriptions keeps listeners in registration order. Added and dropped
// listeners share one id space.
type subscriptions struct {
	lock    sync.RWMutex
	lastID  SubscriptionID
	added   *orderedmap.OrderedMap[SubscriptionID, AddedListener]
	dropped *orderedmap.OrderedMap[SubscriptionID, DroppedListener]
}

func newSubscriptions() *subscriptions {
	return &subscriptions{
		added:   orderedmap.New[SubscriptionID, AddedListener](),
		dropped: orderedmap.New[SubscriptionID, DroppedListener](),
	}
}

func (s *subscriptions) subscribeAdded(l AddedListener) SubscriptionID {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.lastID++
	s.added.Set(s.lastID, l)
	return s.lastID
}

func (s *subscriptions) subscribeDropped(l DroppedListener) SubscriptionID {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.lastID++
	s.dropped.Set(s.lastID, l)
	return s.lastID
}

// unsubscribe removes the listener with the given id. Unknown ids are ignored.
func (s *subscriptions) unsubscribe(id SubscriptionID) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	_, wasAdded := s.added.Delete(id)
	_, wasDropped := s.dropped.Delete(id)
	return wasAdded || wasDropped
}

func (s *subscriptions) clear() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.added = orderedmap.New[SubscriptionID, AddedListener]()
	s.dropped = orderedmap.New[SubscriptionID, DroppedListener]()
}

// snapshot copies the listeners so they can be invoked without holding the lock.
func (s *subscriptions) snapshot() ([]AddedListener, []DroppedListener) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	added := make([]AddedListener, 0, s.added.Len())
	for pair := s.added.Oldest(); pair != nil; pair = pair.Next() {
		added = append(added, pair.Value)
	}
	dropped := make([]DroppedListener, 0, s.dropped.Len())
	for pair := s.dropped.Oldest(); pair != nil; pair = pair.Next() {
		dropped = append(dropped, pair.Value)
	}
	return added, dropped
}

func (s *subscriptions) dispatch(events []txEvent) {
	for _, ev := range events {
		added, dropped := s.snapshot()
		if ev.dropped {
			for _, l := range dropped {
				l.OnTransactionDropped(ev.tx, ev.reason)
			}
		} else {
			for _, l := range added {
				l.OnTransactionAdded(ev.tx)
			}
		}
	}
}

// notifier delivers pool events outside of the pool lock while keeping the
// order in which mutations produced them. Events are queued under the pool
// lock; whichever goroutine finds the notifier idle drains the queue, so a
// listener calling back into the pool only appends to it.
type notifier struct {
	lock        sync.Mutex
	queue       []txEvent
	dispatching bool
	subs        *subscriptions
}

func newNotifier(subs *subscriptions) *notifier {
	return &notifier{subs: subs}
}

// enqueue must be called with the pool lock held.
func (n *notifier) enqueue(events []txEvent) {
	if len(events) == 0 {
		return
	}
	n.lock.Lock()
	n.queue = append(n.queue, events...)
	n.lock.Unlock()
}

func (n *notifier) flush() {
	n.lock.Lock()
	if n.dispatching {
		n.lock.Unlock()
		return
	}
	n.dispatching = true
	for len(n.queue) > 0 {
		batch := n.queue
		n.queue = nil
		n.lock.Unlock()
		n.subs.dispatch(batch)
		n.lock.Lock()
	}
	n.dispatching = false
	n.lock.Unlock()
}

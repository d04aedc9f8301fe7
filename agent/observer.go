package agent

import "reflect"

// Observer receives the URL of every page a session is about to fetch.
// Notifications are purely advisory; they never influence control flow.
// Observers are scoped to one session, so concurrent sessions never share
// observer state.
type Observer interface {
	OnVisit(url string)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(url string)

// OnVisit implements Observer.
func (f ObserverFunc) OnVisit(url string) { f(url) }

// Attach registers an observer with the session.
func (s *Session) Attach(o Observer) {
	s.observers = append(s.observers, o)
}

// Detach removes a previously attached observer. Observers backed by
// comparable types (typically pointers) are matched by identity;
// detaching an ObserverFunc or other non-comparable observer is a no-op
// because func values cannot be compared.
func (s *Session) Detach(o Observer) {
	if o == nil || !reflect.TypeOf(o).Comparable() {
		return
	}
	for i, attached := range s.observers {
		if reflect.TypeOf(attached).Comparable() && attached == o {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

func (s *Session) notify(url string) {
	for _, o := range s.observers {
		o.OnVisit(url)
	}
}

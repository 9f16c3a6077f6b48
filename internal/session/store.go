// Package session keeps the per-user editing state the service layer owns on
// behalf of the web app: profile drafts, showcase item sessions and the style
// clipboard. Entries expire after a TTL and are wiped on logout.
package session

import (
	"sync"
	"time"

	"github.com/boddenberg/linkbio-api-go/internal/editor"
	"github.com/boddenberg/linkbio-api-go/internal/infra/cache"
	"github.com/boddenberg/linkbio-api-go/internal/showcase"
)

// Store is safe for concurrent use. Lock serializes mutations of one user's
// state across requests.
type Store struct {
	clipboard *cache.InMemory[editor.StyleSnapshot]
	drafts    *cache.InMemory[*editor.Draft]
	items     *cache.InMemory[*showcase.ItemSession]

	mu    sync.Mutex
	keys  map[string]map[string]struct{}
	locks map[string]*sync.Mutex
}

// New creates a store whose entries live for ttl after their last write.
func New(ttl time.Duration) *Store {
	return &Store{
		clipboard: cache.New[editor.StyleSnapshot](ttl),
		drafts:    cache.New[*editor.Draft](ttl),
		items:     cache.New[*showcase.ItemSession](ttl),
		keys:      make(map[string]map[string]struct{}),
		locks:     make(map[string]*sync.Mutex),
	}
}

// Close stops the background expiry of every bucket.
func (s *Store) Close() {
	s.clipboard.Close()
	s.drafts.Close()
	s.items.Close()
}

// Lock acquires the per-user mutex and returns its release func.
func (s *Store) Lock(userID string) func() {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func draftKey(userID, profileID string) string { return userID + "/profile/" + profileID }
func itemKey(userID, showcaseID string) string { return userID + "/showcase/" + showcaseID }

func (s *Store) track(userID, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.keys[userID]
	if !ok {
		set = make(map[string]struct{})
		s.keys[userID] = set
	}
	set[key] = struct{}{}
}

// Draft returns the user's draft of a profile.
func (s *Store) Draft(userID, profileID string) (*editor.Draft, bool) {
	return s.drafts.Get(draftKey(userID, profileID))
}

// PutDraft stores or refreshes a draft.
func (s *Store) PutDraft(userID, profileID string, d *editor.Draft) {
	k := draftKey(userID, profileID)
	s.drafts.Set(k, d)
	s.track(userID, k)
}

// DropDraft discards a draft.
func (s *Store) DropDraft(userID, profileID string) {
	s.drafts.Delete(draftKey(userID, profileID))
}

// ItemSession returns the showcase editing session, creating an empty one.
func (s *Store) ItemSession(userID, showcaseID string) *showcase.ItemSession {
	k := itemKey(userID, showcaseID)
	if sess, ok := s.items.Get(k); ok {
		return sess
	}
	sess := &showcase.ItemSession{}
	s.items.Set(k, sess)
	s.track(userID, k)
	return sess
}

// Copy implements editor.Clipboard.
func (s *Store) Copy(userID string, snap editor.StyleSnapshot) {
	s.clipboard.Set(userID, snap)
}

// Paste implements editor.Clipboard.
func (s *Store) Paste(userID string) (editor.StyleSnapshot, bool) {
	return s.clipboard.Get(userID)
}

// Clear wipes every piece of state held for the user.
func (s *Store) Clear(userID string) {
	s.clipboard.Delete(userID)

	s.mu.Lock()
	keys := s.keys[userID]
	delete(s.keys, userID)
	delete(s.locks, userID)
	s.mu.Unlock()

	for k := range keys {
		s.drafts.Delete(k)
		s.items.Delete(k)
	}
}

var _ editor.Clipboard = (*Store)(nil)

// Package memory is an in-process implementation of the repository
// interfaces. It backs the test suites and STORE_DRIVER=memory.
package memory

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/parentingo/parentingo/internal/domain"
	"github.com/parentingo/parentingo/internal/repository"
)

// Store holds every collection behind one lock so multi-document writes
// (follow edges, post cascades) are atomic.
type Store struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]domain.User
	groups   map[uuid.UUID]domain.Group
	posts    map[uuid.UUID]domain.Post
	comments map[uuid.UUID]domain.Comment
}

func New() *Store {
	return &Store{
		users:    make(map[uuid.UUID]domain.User),
		groups:   make(map[uuid.UUID]domain.Group),
		posts:    make(map[uuid.UUID]domain.Post),
		comments: make(map[uuid.UUID]domain.Comment),
	}
}

func (s *Store) Users() *UserRepo       { return &UserRepo{s: s} }
func (s *Store) Groups() *GroupRepo     { return &GroupRepo{s: s} }
func (s *Store) Posts() *PostRepo       { return &PostRepo{s: s} }
func (s *Store) Comments() *CommentRepo { return &CommentRepo{s: s} }

func cloneIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	out := make([]uuid.UUID, len(ids))
	copy(out, ids)
	return out
}

func page[T any](items []T, opts domain.ListOptions) []T {
	if opts.Skip >= len(items) {
		return []T{}
	}
	items = items[opts.Skip:]
	if opts.Limit > 0 && opts.Limit < len(items) {
		items = items[:opts.Limit]
	}
	return items
}

func sortByTime[T any](items []T, at func(T) int64, newest bool) {
	sort.SliceStable(items, func(i, j int) bool {
		if newest {
			return at(items[i]) > at(items[j])
		}
		return at(items[i]) < at(items[j])
	})
}

// Repositories exposes s through the repository interfaces.
func (s *Store) Repositories() repository.Store {
	return repository.Store{
		Users:    s.Users(),
		Groups:   s.Groups(),
		Posts:    s.Posts(),
		Comments: s.Comments(),
	}
}

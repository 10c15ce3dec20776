package repository

import (
	"errors"

	"github.com/moviehub/moviehub/internal/store"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("repository: not found")

// ErrUnavailable indicates the document store is not reachable. List
// endpoints translate it into empty payloads, detail endpoints into 404.
var ErrUnavailable = errors.New("repository: store unavailable")

// ErrDuplicateEmail indicates a registration conflict.
var ErrDuplicateEmail = errors.New("repository: email already in use")

// Collection names.
const (
	moviesCollection   = "movies"
	usersCollection    = "users"
	contactsCollection = "contactmessages"
)

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Movies   *MoviesRepository
	Users    *UsersRepository
	Contacts *ContactsRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return &Repository{
		Movies:   &MoviesRepository{store: st},
		Users:    &UsersRepository{store: st},
		Contacts: &ContactsRepository{store: st},
	}
}

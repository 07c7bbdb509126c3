// Package users manages operator accounts. Accounts live under one slot key
// as a JSON map of username to bcrypt hash; the warehouse runs a handful of
// operators, so a keyed blob is plenty.
package users

import (
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/joshrakosky/fmg-pick/internal/storage"
)

// ErrExists indicates the username is already taken.
var ErrExists = errors.New("user already exists")

// Store reads and writes operator accounts in the slot.
type Store struct {
	slot storage.Slot
}

func NewStore(slot storage.Slot) *Store {
	return &Store{slot: slot}
}

func (s *Store) load() (map[string]string, error) {
	payload, err := s.slot.Get(storage.UsersKey)
	if errors.Is(err, storage.ErrNotFound) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read users: %w", err)
	}

	accounts := map[string]string{}
	if err := json.Unmarshal(payload, &accounts); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return accounts, nil
}

func (s *Store) save(accounts map[string]string) error {
	payload, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	if err := s.slot.Set(storage.UsersKey, payload); err != nil {
		return fmt.Errorf("write users: %w", err)
	}
	return nil
}

// Create adds an operator account, hashing the password with bcrypt.
// Mainly for seeding the initial operator from the CLI.
func (s *Store) Create(username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("username and password are required")
	}

	accounts, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := accounts[username]; ok {
		return fmt.Errorf("%w: %s", ErrExists, username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	accounts[username] = string(hash)
	return s.save(accounts)
}

// Authenticate checks a username/password pair. A missing user and a wrong
// password both return false with no error, so callers can't leak which.
func (s *Store) Authenticate(username, password string) (bool, error) {
	accounts, err := s.load()
	if err != nil {
		return false, err
	}

	hash, ok := accounts[username]
	if !ok {
		return false, nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return false, nil
	}
	return true, nil
}

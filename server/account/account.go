package account

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"questline/server/balance"
	"questline/server/fsname"
)

// Account is the user profile the progression engine's deltas are applied to.
type Account struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	XP             int             `json:"xp"`
	Gold           int64           `json:"gold"`
	Items          []string        `json:"items"`
	Achievements   []string        `json:"achievements"`
	ClaimedRewards map[string]bool `json:"claimedRewards"` // idempotency keys of applied victory rewards
	CreatedAt      int64           `json:"createdAt"`
	LastUpdated    int64           `json:"lastUpdated"`
}

func newAccount(id, name string) *Account {
	if name == "" {
		name = id
	}
	now := time.Now().Unix()
	return &Account{
		ID:             id,
		Name:           name,
		Gold:           balance.StartingGold,
		Items:          []string{},
		Achievements:   []string{},
		ClaimedRewards: make(map[string]bool),
		CreatedAt:      now,
		LastUpdated:    now,
	}
}

// Level derives the user level from total XP.
func (a *Account) Level() int {
	lvl, _, _ := ComputeLevel(a.XP)
	return lvl
}

// Repo stores accounts as one JSON file per user and hands out per-user locks.
type Repo struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRepo(dir string) (*Repo, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create accounts directory: %w", err)
	}
	return &Repo{dir: dir, locks: make(map[string]*sync.Mutex)}, nil
}

// Lock acquires the per-user lock and returns its release func.
func (r *Repo) Lock(id string) func() {
	r.mu.Lock()
	l, ok := r.locks[id]
	if !ok {
		l = &sync.Mutex{}
		r.locks[id] = l
	}
	r.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (r *Repo) path(id string) string {
	return filepath.Join(r.dir, fsname.Encode(id)+".json")
}

// Load reads an account. A missing account is created with starting gold; an
// unreadable file is logged and replaced by a fresh account.
func (r *Repo) Load(id, name string) (*Account, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("empty account id")
	}
	data, err := os.ReadFile(r.path(id))
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("ACCOUNT: Creating new account for '%s' (ID: %s)", name, id)
		return newAccount(id, name), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read account file: %w", err)
	}

	var acc Account
	if err := json.Unmarshal(data, &acc); err != nil {
		log.Printf("ACCOUNT: Failed to unmarshal account %s: %v, starting fresh", id, err)
		return newAccount(id, name), nil
	}
	if acc.Items == nil {
		acc.Items = []string{}
	}
	if acc.Achievements == nil {
		acc.Achievements = []string{}
	}
	if acc.ClaimedRewards == nil {
		acc.ClaimedRewards = make(map[string]bool)
	}
	if name != "" {
		acc.Name = name
	}
	return &acc, nil
}

// Save persists an account atomically.
func (r *Repo) Save(acc *Account) error {
	if acc == nil || strings.TrimSpace(acc.ID) == "" {
		return errors.New("invalid account: no ID")
	}
	acc.LastUpdated = time.Now().Unix()

	data, err := json.MarshalIndent(acc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}
	path := r.path(acc.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp account file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename account file: %w", err)
	}
	return nil
}

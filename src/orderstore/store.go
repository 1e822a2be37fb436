package orderstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// OrderRecord is a blotter row. Keys prefixed with an underscore are recall
// metadata (original free text, toolbar values, last table snapshot) written
// by the frontend; the store round-trips them untouched.
type OrderRecord map[string]interface{}

func (o OrderRecord) ID() string {
	id, _ := o["id"].(string)
	return id
}

const (
	lockTimeout = 5 * time.Second
	lockRetry   = 50 * time.Millisecond
)

// Store persists the order blotter as a JSON file with atomic writes (write
// to temp file, then rename) and a sidecar lock file so two processes doing
// concurrent read-modify-write cycles cannot lose data.
type Store struct {
	ordersPath string
	lockPath   string
}

// NewStore creates a store rooted at dir; "" uses ~/.idb-pricer.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("NewStore: resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".idb-pricer")
	}

	return &Store{
		ordersPath: filepath.Join(dir, "orders.json"),
		lockPath:   filepath.Join(dir, "orders.lock"),
	}, nil
}

type ordersFile struct {
	Orders []OrderRecord `json:"orders"`
}

// LoadOrders returns all orders, or an empty list when the file is missing
// or corrupt.
func (s *Store) LoadOrders() []OrderRecord {
	data, err := os.ReadFile(s.ordersPath)
	if err != nil {
		return []OrderRecord{}
	}

	var f ordersFile
	if err := json.Unmarshal(data, &f); err != nil {
		log.Warnf("Store.LoadOrders: corrupt orders file %s: %v", s.ordersPath, err)
		return []OrderRecord{}
	}

	if f.Orders == nil {
		return []OrderRecord{}
	}

	return f.Orders
}

// SaveOrders atomically writes the orders file. Callers doing a
// load-modify-save cycle should use SaveOrdersLocked or the mutating
// helpers instead.
func (s *Store) SaveOrders(orders []OrderRecord) error {
	dir := filepath.Dir(s.ordersPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("Store.SaveOrders: create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".orders_*.tmp")
	if err != nil {
		return fmt.Errorf("Store.SaveOrders: create temp file: %w", err)
	}

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ordersFile{Orders: orders}); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("Store.SaveOrders: encode orders: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("Store.SaveOrders: close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.ordersPath); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("Store.SaveOrders: rename temp file: %w", err)
	}

	return nil
}

func (s *Store) withLock(fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(s.lockPath), 0o755); err != nil {
		return fmt.Errorf("Store.withLock: create lock dir: %w", err)
	}

	fl := flock.New(s.lockPath)

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(ctx, lockRetry)
	if err != nil || !locked {
		return fmt.Errorf("Store.withLock: could not acquire order file lock within %s: %v", lockTimeout, err)
	}
	defer fl.Unlock()

	return fn()
}

// SaveOrdersLocked atomically writes the orders under the cross-process
// lock.
func (s *Store) SaveOrdersLocked(orders []OrderRecord) error {
	return s.withLock(func() error {
		return s.SaveOrders(orders)
	})
}

// AddOrder appends a new order (assigning an id when absent) and persists.
// Returns the updated orders list.
func (s *Store) AddOrder(order OrderRecord) ([]OrderRecord, error) {
	var orders []OrderRecord
	err := s.withLock(func() error {
		if order.ID() == "" {
			order["id"] = uuid.NewString()
		}

		orders = append(s.LoadOrders(), order)
		return s.SaveOrders(orders)
	})
	if err != nil {
		return nil, fmt.Errorf("Store.AddOrder: %w", err)
	}

	return orders, nil
}

// UpdateOrder merges updates into the order with the given id and persists.
// Returns the updated orders list and whether the id matched; an unknown id
// leaves the file untouched.
func (s *Store) UpdateOrder(orderID string, updates map[string]interface{}) ([]OrderRecord, bool, error) {
	var orders []OrderRecord
	found := false
	err := s.withLock(func() error {
		orders = s.LoadOrders()
		for _, order := range orders {
			if order.ID() == orderID {
				for k, v := range updates {
					order[k] = v
				}
				found = true
				break
			}
		}

		if !found {
			return nil
		}

		return s.SaveOrders(orders)
	})
	if err != nil {
		return nil, false, fmt.Errorf("Store.UpdateOrder: %w", err)
	}

	return orders, found, nil
}

// DeleteOrders removes the orders whose ids appear in ids. Returns the
// remaining orders and the number removed.
func (s *Store) DeleteOrders(ids []string) ([]OrderRecord, int, error) {
	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}

	var remaining []OrderRecord
	removed := 0
	err := s.withLock(func() error {
		orders := s.LoadOrders()
		remaining = []OrderRecord{}
		for _, order := range orders {
			if idSet[order.ID()] {
				removed++
				continue
			}
			remaining = append(remaining, order)
		}

		if removed == 0 {
			return nil
		}

		return s.SaveOrders(remaining)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("Store.DeleteOrders: %w", err)
	}

	return remaining, removed, nil
}

// OrdersToDisplay strips the private underscore-prefixed recall keys for
// blotter display.
func OrdersToDisplay(orders []OrderRecord) []OrderRecord {
	out := make([]OrderRecord, 0, len(orders))
	for _, order := range orders {
		display := OrderRecord{}
		for k, v := range order {
			if strings.HasPrefix(k, "_") {
				continue
			}
			display[k] = v
		}
		out = append(out, display)
	}

	return out
}

// Mtime returns the orders file's modification time, or the zero time when
// the file is missing.
func (s *Store) Mtime() time.Time {
	info, err := os.Stat(s.ordersPath)
	if err != nil {
		return time.Time{}
	}

	return info.ModTime()
}

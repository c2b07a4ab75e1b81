package agenda

import (
	"context"
	"fmt"
	"sync"

	"github.com/bizledger/bizledger/internal/docstore"
	"github.com/bizledger/bizledger/internal/masterdata"
)

type memoryRepo struct {
	mu    sync.Mutex
	appts map[string]Appointment
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{appts: map[string]Appointment{}}
}

func key(owner, id string) string { return owner + "/" + id }

func (m *memoryRepo) List(_ context.Context, owner string) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Appointment
	for k, a := range m.appts {
		if k == key(owner, a.ID) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memoryRepo) Get(_ context.Context, owner, id string) (Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[key(owner, id)]
	if !ok {
		return Appointment{}, fmt.Errorf("appointments/%s: %w", id, docstore.ErrNotFound)
	}
	return a, nil
}

func (m *memoryRepo) Insert(_ context.Context, owner string, a Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appts[key(owner, a.ID)] = a
	return nil
}

func (m *memoryRepo) Save(_ context.Context, owner string, a Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appts[key(owner, a.ID)] = a
	return nil
}

func (m *memoryRepo) SetStatus(_ context.Context, owner, id string, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[key(owner, id)]
	if !ok {
		return docstore.ErrNotFound
	}
	a.Status = status
	m.appts[key(owner, id)] = a
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appts[key(owner, id)]; !ok {
		return docstore.ErrNotFound
	}
	delete(m.appts, key(owner, id))
	return nil
}

type fakeCustomers map[string]string

func (f fakeCustomers) GetCustomer(_ context.Context, _ string, id string) (masterdata.Customer, error) {
	name, ok := f[id]
	if !ok {
		return masterdata.Customer{}, docstore.ErrNotFound
	}
	return masterdata.Customer{ID: id, Name: name}, nil
}

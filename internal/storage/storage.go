// Package storage содержит «локальное хранилище» витрины: строковые значения по ключу
// и несколько реализаций бэкенда.
package storage

import (
	"context"
	"sync"
)

// Ключи, под которыми держатели состояния сохраняют свои данные.
const (
	KeyUser = "user"
	KeyCart = "cart"
)

// Storage описывает минимальный контракт локального хранилища.
// Read возвращает ok == false, если ключа нет. Remove отсутствующего ключа не является ошибкой.
type Storage interface {
	Read(ctx context.Context, key string) (string, bool, error)
	Write(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// MemoryStorage хранит значения в памяти процесса.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string]string

	// WriteErr, если задан, возвращается из каждого Write.
	WriteErr error
}

// NewMemoryStorage создаёт пустое хранилище в памяти.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

// Read возвращает значение по ключу.
func (m *MemoryStorage) Read(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.values[key]
	return v, ok, nil
}

// Write сохраняет значение по ключу.
func (m *MemoryStorage) Write(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.values[key] = value
	return nil
}

// Remove удаляет значение по ключу.
func (m *MemoryStorage) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}

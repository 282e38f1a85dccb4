// Package cart хранит корзину покупателя и сохраняет её в локальное хранилище.
package cart

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/novastore/internal/model"
	"github.com/mmeshcher/novastore/internal/storage"
)

const persistTimeout = 5 * time.Second

// Holder владеет списком позиций корзины.
// Не более одной позиции на товар; порядок добавления сохраняется.
type Holder struct {
	mu    sync.Mutex
	items []model.LineItem

	store  storage.Storage
	logger *zap.Logger
}

// NewHolder создаёт корзину и синхронно восстанавливает позиции из хранилища.
// Отсутствующая или повреждённая запись даёт пустую корзину.
func NewHolder(ctx context.Context, store storage.Storage, logger *zap.Logger) *Holder {
	h := &Holder{
		store:  store,
		logger: logger,
	}
	h.items = h.load(ctx)
	return h
}

func (h *Holder) load(ctx context.Context) []model.LineItem {
	raw, ok, err := h.store.Read(ctx, storage.KeyCart)
	if err != nil {
		h.logger.Warn("read persisted cart", zap.Error(err))
		return nil
	}
	if !ok || raw == "" {
		return nil
	}

	var items []model.LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		h.logger.Warn("discard malformed persisted cart", zap.Error(err))
		return nil
	}
	return items
}

// Items возвращает копию позиций корзины.
func (h *Holder) Items() []model.LineItem {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]model.LineItem, len(h.items))
	copy(out, h.items)
	return out
}

// Add добавляет товар в корзину. Если товар уже есть, увеличивает количество на qty
// без верхнего ограничения; иначе добавляет позицию со снимком отображаемых полей.
// qty < 1 считается равным 1.
func (h *Holder) Add(p model.Product, qty int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if qty < 1 {
		qty = 1
	}

	for i := range h.items {
		if h.items[i].ProductID == p.ID {
			h.items[i].Qty += qty
			h.persist()
			return
		}
	}

	h.items = append(h.items, model.LineItem{
		ProductID: p.ID,
		Title:     p.Title,
		Price:     p.Price,
		Qty:       qty,
		Image:     p.Image,
		Desc:      p.Desc,
	})
	h.persist()
}

// SetQuantity устанавливает количество позиции не меньше 1. Неизвестный товар игнорируется.
func (h *Holder) SetQuantity(productID string, qty int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range h.items {
		if h.items[i].ProductID == productID {
			h.items[i].Qty = max(1, qty)
			h.persist()
			return
		}
	}
}

// Remove удаляет позицию товара, если она есть.
func (h *Holder) Remove(productID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range h.items {
		if h.items[i].ProductID == productID {
			h.items = append(h.items[:i:i], h.items[i+1:]...)
			h.persist()
			return
		}
	}
}

// Clear очищает корзину.
func (h *Holder) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items = nil
	h.persist()
}

// Total пересчитывает сумму price × qty по всем позициям при каждом вызове.
func (h *Holder) Total() decimal.Decimal {
	h.mu.Lock()
	defer h.mu.Unlock()

	return Total(h.items)
}

// Total возвращает сумму price × qty по переданным позициям.
func Total(items []model.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Subtotal())
	}
	return sum
}

// persist вызывается под h.mu. Ошибки хранилища не меняют состояние в памяти.
func (h *Holder) persist() {
	items := h.items
	if items == nil {
		items = []model.LineItem{}
	}

	data, err := json.Marshal(items)
	if err != nil {
		h.logger.Warn("encode cart", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := h.store.Write(ctx, storage.KeyCart, string(data)); err != nil {
		h.logger.Warn("persist cart", zap.Error(err), zap.Int("items", len(h.items)))
	}
}

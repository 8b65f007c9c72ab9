package cart

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"
)

// memoryRepo mimics the Postgres repository: Within is all-or-nothing and
// reserved quantities follow cart writes the way the database trigger does.
type memoryRepo struct {
	mu       sync.Mutex
	variants map[string]cartrepo.VariantStock
	lines    map[string]domain.CartLine
	seq      int
	now      time.Time
	failOn   map[string]error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		variants: map[string]cartrepo.VariantStock{},
		lines:    map[string]domain.CartLine{},
		now:      time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
		failOn:   map[string]error{},
	}
}

func (m *memoryRepo) addVariant(id string, inventory, reserved int, price int64) {
	m.variants[id] = cartrepo.VariantStock{
		VariantID:    id,
		ProductID:    "prod-" + id,
		ProductTitle: "Title " + id,
		Option1:      "Red",
		Option2:      "M",
		Price:        price,
		Inventory:    inventory,
		Reserved:     reserved,
	}
}

func (m *memoryRepo) addLine(owner domain.CartOwner, variantID string, qty int) domain.CartLine {
	m.seq++
	v := m.variants[variantID]
	line := domain.CartLine{
		ID:           fmt.Sprintf("line-%d", m.seq),
		ProductID:    v.ProductID,
		VariantID:    variantID,
		ProductTitle: v.ProductTitle,
		Quantity:     qty,
		Price:        v.Price,
		CreatedAt:    m.now.Add(time.Duration(m.seq) * time.Second),
		ExpiresAt:    m.now.Add(2 * time.Hour),
	}
	setOwner(&line, owner)
	m.lines[line.ID] = line
	v.Reserved += qty
	m.variants[variantID] = v
	return line
}

func (m *memoryRepo) reserved(variantID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.variants[variantID].Reserved
}

func (m *memoryRepo) linesOf(owner domain.CartOwner) []domain.CartLine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ownedLocked(owner)
}

func (m *memoryRepo) ownedLocked(owner domain.CartOwner) []domain.CartLine {
	var out []domain.CartLine
	for _, l := range m.lines {
		if l.OwnedBy(owner) && l.ExpiresAt.After(m.now) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *memoryRepo) Within(ctx context.Context, fn func(ctx context.Context, tx cartrepo.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	savedVariants := make(map[string]cartrepo.VariantStock, len(m.variants))
	for k, v := range m.variants {
		savedVariants[k] = v
	}
	savedLines := make(map[string]domain.CartLine, len(m.lines))
	for k, v := range m.lines {
		savedLines[k] = v
	}

	if err := fn(ctx, &memoryTx{m: m}); err != nil {
		m.variants, m.lines = savedVariants, savedLines
		return err
	}
	return nil
}

func (m *memoryRepo) List(_ context.Context, owner domain.CartOwner) ([]domain.CartLine, error) {
	if err := m.failOn["List"]; err != nil {
		return nil, err
	}
	return m.linesOf(owner), nil
}

func (m *memoryRepo) DeleteLines(_ context.Context, owner domain.CartOwner, ids []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, id := range ids {
		if l, ok := m.lines[id]; ok && l.OwnedBy(owner) {
			m.deleteLocked(id)
			n++
		}
	}
	return n, nil
}

func (m *memoryRepo) CleanExpired(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, l := range m.lines {
		if !l.ExpiresAt.After(m.now) {
			m.deleteLocked(id)
			n++
		}
	}
	return n, nil
}

func (m *memoryRepo) deleteLocked(id string) {
	l := m.lines[id]
	v := m.variants[l.VariantID]
	v.Reserved -= l.Quantity
	m.variants[l.VariantID] = v
	delete(m.lines, id)
}

type memoryTx struct {
	m *memoryRepo
}

func (t *memoryTx) LockVariant(_ context.Context, variantID string) (cartrepo.VariantStock, error) {
	if err := t.m.failOn["LockVariant"]; err != nil {
		return cartrepo.VariantStock{}, err
	}
	v, ok := t.m.variants[variantID]
	if !ok {
		return cartrepo.VariantStock{}, domain.ErrNotFound
	}
	return v, nil
}

func (t *memoryTx) LineVariant(ctx context.Context, owner domain.CartOwner, lineID string) (string, error) {
	l, err := t.FindByID(ctx, owner, lineID)
	if err != nil {
		return "", err
	}
	return l.VariantID, nil
}

func (t *memoryTx) FindByVariant(_ context.Context, owner domain.CartOwner, variantID string) (*domain.CartLine, error) {
	for _, l := range t.m.ownedLocked(owner) {
		if l.VariantID == variantID {
			return &l, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (t *memoryTx) FindByID(_ context.Context, owner domain.CartOwner, lineID string) (*domain.CartLine, error) {
	l, ok := t.m.lines[lineID]
	if !ok || !l.OwnedBy(owner) || !l.ExpiresAt.After(t.m.now) {
		return nil, domain.ErrNotFound
	}
	return &l, nil
}

func (t *memoryTx) ListByOwner(_ context.Context, owner domain.CartOwner) ([]domain.CartLine, error) {
	return t.m.ownedLocked(owner), nil
}

func (t *memoryTx) Insert(_ context.Context, in cartrepo.NewLine) (*domain.CartLine, error) {
	if err := t.m.failOn["Insert"]; err != nil {
		return nil, err
	}
	for _, l := range t.m.lines {
		if l.OwnedBy(in.Owner) && l.VariantID == in.VariantID {
			return nil, domain.ErrAlreadyExists
		}
	}
	t.m.seq++
	line := domain.CartLine{
		ID:           fmt.Sprintf("line-%d", t.m.seq),
		ProductID:    in.ProductID,
		VariantID:    in.VariantID,
		Option1:      in.Option1,
		Option2:      in.Option2,
		ProductTitle: in.ProductTitle,
		Quantity:     in.Quantity,
		Price:        in.Price,
		CreatedAt:    t.m.now.Add(time.Duration(t.m.seq) * time.Second),
		ExpiresAt:    t.m.now.Add(2 * time.Hour),
	}
	setOwner(&line, in.Owner)
	t.m.lines[line.ID] = line
	v := t.m.variants[in.VariantID]
	v.Reserved += in.Quantity
	t.m.variants[in.VariantID] = v
	return &line, nil
}

func (t *memoryTx) SetQuantity(_ context.Context, lineID string, quantity int) (*domain.CartLine, error) {
	if err := t.m.failOn["SetQuantity"]; err != nil {
		return nil, err
	}
	l, ok := t.m.lines[lineID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	v := t.m.variants[l.VariantID]
	v.Reserved += quantity - l.Quantity
	t.m.variants[l.VariantID] = v
	l.Quantity = quantity
	l.UpdatedAt = t.m.now
	t.m.lines[lineID] = l
	return &l, nil
}

func (t *memoryTx) Delete(_ context.Context, lineID string) error {
	if _, ok := t.m.lines[lineID]; !ok {
		return domain.ErrNotFound
	}
	t.m.deleteLocked(lineID)
	return nil
}

func (t *memoryTx) Reassign(_ context.Context, lineID, userID string) error {
	if err := t.m.failOn["Reassign"]; err != nil {
		return err
	}
	l, ok := t.m.lines[lineID]
	if !ok {
		return domain.ErrNotFound
	}
	setOwner(&l, domain.UserOwner(userID))
	t.m.lines[lineID] = l
	return nil
}

func setOwner(l *domain.CartLine, owner domain.CartOwner) {
	l.UserID, l.SessionID = nil, nil
	if owner.IsUser() {
		id := owner.UserID
		l.UserID = &id
		return
	}
	id := owner.SessionID
	l.SessionID = &id
}

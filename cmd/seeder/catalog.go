// cmd/seeder/catalog.go
package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/kasir-be/internal/core/domain"
	"github.com/ammerola/kasir-be/internal/core/ports"
)

// seedNamespace derives stable ids for parties so reruns reference the same rows
var seedNamespace = uuid.MustParse("6f1c8a4e-2b1d-4c55-9a0e-4b9d7f3e2a10")

// partyWriter is implemented by stores that keep members, users and suppliers
type partyWriter interface {
	UpsertUser(ctx context.Context, user *domain.User) error
	UpsertMember(ctx context.Context, member *domain.Member) error
	UpsertSupplier(ctx context.Context, supplier *domain.Supplier) error
}

// catalog resolves names found in source documents to stored ids
type catalog struct {
	store      ports.LedgerStore
	parties    partyWriter
	dryRun     bool
	categories map[string]domain.Category
	users      map[string]uuid.UUID
	members    map[string]uuid.UUID
	suppliers  map[string]uuid.UUID
}

func newCatalog(ctx context.Context, store ports.LedgerStore, dryRun bool) (*catalog, error) {
	c := &catalog{
		store:      store,
		dryRun:     dryRun,
		categories: make(map[string]domain.Category),
		users:      make(map[string]uuid.UUID),
		members:    make(map[string]uuid.UUID),
		suppliers:  make(map[string]uuid.UUID),
	}
	if pw, ok := store.(partyWriter); ok {
		c.parties = pw
	}

	existing, err := store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	for _, cat := range existing {
		c.categories[normalizeName(cat.Name)] = cat
	}
	return c, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func stableID(kind, name string) uuid.UUID {
	return uuid.NewSHA1(seedNamespace, []byte(kind+":"+normalizeName(name)))
}

// category returns the id for name, creating the category with price when new
func (c *catalog) category(ctx context.Context, name string, price decimal.Decimal) (uuid.UUID, error) {
	key := normalizeName(name)
	if cat, ok := c.categories[key]; ok {
		return cat.ID, nil
	}

	cat := domain.Category{
		ID:    stableID("category", name),
		Name:  strings.TrimSpace(name),
		Price: price,
	}
	if !c.dryRun {
		if err := c.store.UpsertCategory(ctx, &cat); err != nil {
			return uuid.Nil, err
		}
	}
	c.categories[key] = cat
	return cat.ID, nil
}

func (c *catalog) user(ctx context.Context, name string) (uuid.UUID, error) {
	return c.party(ctx, c.users, "user", name, func(id uuid.UUID, name string) error {
		return c.parties.UpsertUser(ctx, &domain.User{ID: id, Name: name, Role: "cashier"})
	})
}

func (c *catalog) member(ctx context.Context, name string) (uuid.UUID, error) {
	return c.party(ctx, c.members, "member", name, func(id uuid.UUID, name string) error {
		return c.parties.UpsertMember(ctx, &domain.Member{ID: id, Name: name})
	})
}

func (c *catalog) supplier(ctx context.Context, name string) (uuid.UUID, error) {
	return c.party(ctx, c.suppliers, "supplier", name, func(id uuid.UUID, name string) error {
		return c.parties.UpsertSupplier(ctx, &domain.Supplier{ID: id, Name: name})
	})
}

// party returns uuid.Nil for blank names or stores without party tables
func (c *catalog) party(ctx context.Context, seen map[string]uuid.UUID, kind, name string, upsert func(uuid.UUID, string) error) (uuid.UUID, error) {
	name = strings.TrimSpace(name)
	if name == "" || c.parties == nil {
		return uuid.Nil, nil
	}

	key := normalizeName(name)
	if id, ok := seen[key]; ok {
		return id, nil
	}

	id := stableID(kind, name)
	if !c.dryRun {
		if err := upsert(id, name); err != nil {
			return uuid.Nil, fmt.Errorf("failed to upsert %s %q: %w", kind, name, err)
		}
	}
	seen[key] = id
	return id, nil
}

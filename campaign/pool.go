// ABOUTME: Eligible customer lookup and the in-memory pool sampled across rounds
// ABOUTME: The pool shrinks by contact key after each round; the store is never touched by removal
package campaign

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/harperreed/outbound/db"
	"github.com/harperreed/outbound/models"
)

// EligibleCustomers returns customers reachable on platform in country, in
// store order. When excludeGeneratorID is non-zero, customers holding an
// assignment under that generator are left out. No match is an empty slice.
func (e *Engine) EligibleCustomers(ctx context.Context, platform models.Platform, country string, excludeGeneratorID int64) ([]models.Customer, error) {
	docs, err := e.store.Query(ctx, models.CollectionCustomers,
		db.Eq(platform.FlagField(), true),
		db.Eq(models.FieldCountry, country),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}

	customers := make([]models.Customer, 0, len(docs))
	for _, d := range docs {
		if excludeGeneratorID != 0 {
			assigned, err := e.store.Query(ctx, db.Join(d.Path, models.SubcollectionAssignments),
				db.Eq(models.FieldExperimentGeneratorID, excludeGeneratorID))
			if err != nil {
				return nil, fmt.Errorf("failed to query assignments of %s: %w", d.ID, err)
			}
			if len(assigned) > 0 {
				continue
			}
		}
		customers = append(customers, models.CustomerFromFields(d.ID, d.Fields))
	}

	return customers, nil
}

// Pool is the working set of one setup call, keyed by the platform's contact field.
type Pool struct {
	platform  models.Platform
	customers []models.Customer
}

// NewPool keeps the first customer for every contact key and drops customers without one.
func NewPool(platform models.Platform, customers []models.Customer) *Pool {
	p := &Pool{platform: platform}
	seen := make(map[string]bool, len(customers))
	for _, c := range customers {
		key := c.ContactKey(platform)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		p.customers = append(p.customers, c)
	}
	return p
}

func (p *Pool) Len() int {
	return len(p.customers)
}

func (p *Pool) Customers() []models.Customer {
	return append([]models.Customer(nil), p.customers...)
}

// Sample draws n distinct customers without modifying the pool.
func (p *Pool) Sample(rng *rand.Rand, n int) []models.Customer {
	if n > len(p.customers) {
		n = len(p.customers)
	}
	idx := make([]int, len(p.customers))
	for i := range idx {
		idx[i] = i
	}
	// Partial Fisher-Yates: the first n positions end up a uniform sample.
	out := make([]models.Customer, 0, n)
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
		out = append(out, p.customers[idx[i]])
	}
	return out
}

// Remove drops the given customers by contact key, keeping the order of the rest.
func (p *Pool) Remove(customers []models.Customer) {
	drop := make(map[string]bool, len(customers))
	for _, c := range customers {
		drop[c.ContactKey(p.platform)] = true
	}
	kept := p.customers[:0]
	for _, c := range p.customers {
		if !drop[c.ContactKey(p.platform)] {
			kept = append(kept, c)
		}
	}
	p.customers = kept
}

func (e *Engine) sample(p *Pool, n int) []models.Customer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return p.Sample(e.rng, n)
}

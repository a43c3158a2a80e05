// ABOUTME: Customer upload mapping for LinkedIn exports, CRM email exports, and phone lists
// ABOUTME: Skips customers whose contact key is already stored or repeated in the file, then writes one batch
package importer

import (
	"context"
	"fmt"

	"github.com/harperreed/outbound/db"
	"github.com/harperreed/outbound/models"
)

// CustomerImport summarizes one upload.
type CustomerImport struct {
	Imported   int
	Duplicates int
	// MissingKey counts rows without a contact value for the platform.
	MissingKey int
	Customers  []models.Customer
}

// ImportCustomers maps rows to customers for platform and stores the new ones.
// title fills the role of LinkedIn rows; country fills rows that carry none.
func (im *Importer) ImportCustomers(ctx context.Context, table *Table, platform models.Platform, title, country string) (*CustomerImport, error) {
	if !platform.Valid() {
		return nil, fmt.Errorf("unknown platform %q", platform)
	}
	mapped, err := MapCustomers(table, platform, title, country)
	if err != nil {
		return nil, err
	}

	docs, err := im.store.Query(ctx, models.CollectionCustomers)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing customers: %w", err)
	}
	existing := make([]models.Customer, 0, len(docs))
	for _, d := range docs {
		existing = append(existing, models.CustomerFromFields(d.ID, d.Fields))
	}
	matcher := NewCustomerMatcher(platform, existing)

	result := &CustomerImport{}
	batch := db.NewBatch(im.store)
	for _, c := range mapped {
		if c.ContactKey(platform) == "" {
			result.MissingKey++
			continue
		}
		if matcher.Seen(c) {
			result.Duplicates++
			continue
		}
		matcher.Add(c)

		path := db.NewDocPath(models.CollectionCustomers)
		_, id, _ := db.SplitDocPath(path)
		c.DocID = id
		batch.Set(path, c.Fields())
		result.Customers = append(result.Customers, c)
	}

	if err := batch.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to store customers: %w", err)
	}
	result.Imported = len(result.Customers)

	im.log.Info("customers imported",
		"platform", platform,
		"imported", result.Imported,
		"duplicates", result.Duplicates,
		"missing_key", result.MissingKey)
	return result, nil
}

// MapCustomers converts upload rows without touching the store.
func MapCustomers(table *Table, platform models.Platform, title, country string) ([]models.Customer, error) {
	var mapRow func(Row) models.Customer
	var required []string

	switch platform {
	case models.PlatformLinkedIn:
		required = []string{"profile_url", "first_name", "last_name"}
		mapRow = func(r Row) models.Customer {
			return models.Customer{
				FirstName:   r["first_name"],
				LastName:    r["last_name"],
				Company:     r["current_company"],
				LinkedInURL: r["profile_url"],
				Role:        title,
				Country:     country,
			}
		}

	case models.PlatformEmail:
		required = []string{"Email", "First Name", "Last Name"}
		phoneCol := firstColumn(table, "Phone", "Phone Number")
		productCol := firstColumn(table, "Product of Interest", "Product-of-Interest-")
		countryCol := firstColumn(table, "Country", "Country-", "Country List")
		stageCol := firstColumn(table, "Lead Stage", "Record Stage")
		mapRow = func(r Row) models.Customer {
			role := r["Title"]
			if specialty := r["Specialty"]; specialty != "" {
				role = role + "-" + specialty
			}
			return models.Customer{
				FirstName:         r["First Name"],
				LastName:          r["Last Name"],
				Company:           r["Company"],
				Email:             r["Email"],
				PhoneNumber:       r[phoneCol],
				Role:              role,
				LeadSource:        r["Lead Source"],
				LeadStatus:        r["Lead Status"],
				LeadStage:         r[stageCol],
				ProductOfInterest: r[productCol],
				Country:           orDefault(r[countryCol], country),
			}
		}

	case models.PlatformPhone:
		required = []string{"Name", "Phone Number"}
		mapRow = func(r Row) models.Customer {
			return models.Customer{
				Name:        r["Name"],
				Role:        orDefault(r["Profession"], title),
				PhoneNumber: r["Phone Number"],
				Email:       r["Email"],
				Country:     country,
			}
		}

	default:
		return nil, fmt.Errorf("unknown platform %q", platform)
	}

	for _, col := range required {
		if !table.Has(col) {
			return nil, fmt.Errorf("%s upload is missing column %q", platform, col)
		}
	}

	out := make([]models.Customer, 0, len(table.Rows))
	for _, r := range table.Rows {
		c := mapRow(r)
		c.RefreshFlags()
		out = append(out, c)
	}
	return out, nil
}

// firstColumn returns the first of names present in the upload, or "".
func firstColumn(table *Table, names ...string) string {
	for _, n := range names {
		if table.Has(n) {
			return n
		}
	}
	return ""
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// ABOUTME: Bulk import of customers and content variables into the store
// ABOUTME: Maps per-platform CSV layouts to customer documents and phases to variable generators
package importer

import (
	"github.com/harperreed/outbound/campaign"
	"github.com/harperreed/outbound/db"
	"github.com/harperreed/outbound/logger"
)

type Importer struct {
	engine *campaign.Engine
	store  db.Store
	log    *logger.Logger
}

func New(engine *campaign.Engine, log *logger.Logger) *Importer {
	if log == nil {
		log = logger.Nop()
	}
	return &Importer{
		engine: engine,
		store:  engine.Store(),
		log:    log,
	}
}

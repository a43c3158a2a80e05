// ABOUTME: CSV export of outbound contacts for manual outreach
// ABOUTME: One row per assignment with contact fields and each arm's content
package outreach

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/harperreed/outbound/campaign"
	"github.com/harperreed/outbound/models"
)

// WriteContactsCSV writes contacts with content columns for as many arms as
// the widest assignment holds.
func WriteContactsCSV(w io.Writer, contacts []campaign.OutboundContact) error {
	arms := 0
	for _, c := range contacts {
		arms = max(arms, len(c.Assignment.ArmContent))
	}

	header := []string{"name", "email", "linkedInUrl", "phoneNumber", "company", "role", "platform", "experimentGeneratorID", "experimentID"}
	for i := 1; i <= arms; i++ {
		for _, s := range models.Slots {
			header = append(header, models.ArmContentField(i, s))
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, c := range contacts {
		cust, a := c.Customer, c.Assignment
		record := []string{
			cust.DisplayName(),
			cust.Email,
			cust.LinkedInURL,
			cust.PhoneNumber,
			cust.Company,
			cust.Role,
			string(a.Platform),
			strconv.FormatInt(a.ExperimentGeneratorID, 10),
			strconv.FormatInt(a.ExperimentID, 10),
		}
		for i := 0; i < arms; i++ {
			var content models.Content
			if i < len(a.ArmContent) {
				content = a.ArmContent[i]
			}
			record = append(record, content[:]...)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

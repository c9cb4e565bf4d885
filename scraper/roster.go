package scraper

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"senate-votes/models"
)

const DefaultRosterURL = "https://www.senate.gov/general/contact_information/senators_cfm.xml"

type rosterDocument struct {
	XMLName xml.Name        `xml:"contact_information"`
	Members []rosterElement `xml:"member"`
}

type rosterElement struct {
	LastName   *string `xml:"last_name"`
	FirstName  *string `xml:"first_name"`
	Party      *string `xml:"party"`
	State      *string `xml:"state"`
	Address    *string `xml:"address"`
	Phone      *string `xml:"phone"`
	Email      *string `xml:"email"`
	Website    *string `xml:"website"`
	BioguideID *string `xml:"bioguide_id"`
}

// ParseRoster reads the senator contact list in document order. Column
// slots are not assigned here.
func ParseRoster(body []byte) ([]models.Senator, error) {
	var doc rosterDocument
	if err := xml.NewDecoder(bytes.NewReader(body)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode roster: %w", err)
	}
	ret := make([]models.Senator, 0, len(doc.Members))
	for idx, m := range doc.Members {
		lastName, ok := optional(m.LastName)
		if !ok {
			return nil, fmt.Errorf("%w: member %d last_name", ErrMissingRequiredField, idx)
		}
		state, ok := optional(m.State)
		if !ok {
			return nil, fmt.Errorf("%w: member %d state", ErrMissingRequiredField, idx)
		}
		ret = append(ret, models.Senator{
			FirstName:  text(m.FirstName),
			LastName:   lastName,
			Party:      text(m.Party),
			State:      state,
			Address:    text(m.Address),
			Phone:      text(m.Phone),
			Email:      text(m.Email),
			Website:    text(m.Website),
			BioguideID: text(m.BioguideID),
		})
	}
	return ret, nil
}

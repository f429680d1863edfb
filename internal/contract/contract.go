// Package contract renders the rental agreement of a booking.
package contract

import (
	"fmt"
	"strings"
)

// DefaultCompanyName is used when the car owner has no company name.
const DefaultCompanyName = "Royal Cars"

// Snapshot is everything the agreement shows, captured at generation time.
type Snapshot struct {
	BookingID      uint
	GeneratedOn    string // YYYY-MM-DD
	CompanyName    string
	RenterName     string
	RenterEmail    string
	CarName        string
	CarYear        int
	Transmission   string
	PickupLocation string
	DropLocation   string
	PickupDate     string
	PickupTime     string
	ReturnDate     string
	ReturnTime     string
	Price          string
	Status         string
}

// Terms are the fixed clauses printed on every agreement.
var Terms = []string{
	"The renter must hold a valid driving licence for the whole rental period.",
	"The vehicle must be returned at the agreed date, time and location, with the same fuel level.",
	"The renter is responsible for traffic fines and damage caused during the rental period.",
	"Smoking and the transport of pets are not allowed without the company's consent.",
	"Late returns may be charged an additional day at the daily rate.",
}

func (s Snapshot) company() string {
	if strings.TrimSpace(s.CompanyName) == "" {
		return DefaultCompanyName
	}
	return s.CompanyName
}

type line struct{ label, value string }

func (s Snapshot) details() []line {
	return []line{
		{"Agreement date", s.GeneratedOn},
		{"Booking reference", fmt.Sprintf("#%d", s.BookingID)},
		{"Rental company", s.company()},
		{"Renter", s.RenterName},
		{"Vehicle", fmt.Sprintf("%s (%d)", s.CarName, s.CarYear)},
		{"Transmission", s.Transmission},
		{"Pickup", fmt.Sprintf("%s on %s at %s", s.PickupLocation, s.PickupDate, s.PickupTime)},
		{"Return", fmt.Sprintf("%s on %s at %s", s.DropLocation, s.ReturnDate, s.ReturnTime)},
		{"Daily price", s.Price},
		{"Booking status", s.Status},
	}
}

// Text renders the agreement as plain text. Output is deterministic for a given snapshot.
func Text(s Snapshot) string {
	var b strings.Builder
	title := "CAR RENTAL AGREEMENT"
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")
	for _, l := range s.details() {
		fmt.Fprintf(&b, "%-18s %s\n", l.label+":", l.value)
	}
	b.WriteString("\nTERMS AND CONDITIONS\n")
	for i, t := range Terms {
		fmt.Fprintf(&b, "%d. %s\n", i+1, t)
	}
	fmt.Fprintf(&b, "\nSigned for %s: ____________________\n", s.company())
	fmt.Fprintf(&b, "Signed by the renter (%s): ____________________\n", s.RenterName)
	return b.String()
}

package contract

import (
	"bytes"
	"strings"
	"testing"
)

func snapshot() Snapshot {
	return Snapshot{
		BookingID:      42,
		GeneratedOn:    "2024-06-10",
		CompanyName:    "Speedy Rentals",
		RenterName:     "alice",
		CarName:        "Civic",
		CarYear:        2020,
		Transmission:   "Automatic",
		PickupLocation: "Airport",
		DropLocation:   "Downtown",
		PickupDate:     "2024-06-01",
		PickupTime:     "10:00",
		ReturnDate:     "2024-06-05",
		ReturnTime:     "18:00",
		Price:          "45.00",
		Status:         "paid",
	}
}

func TestText(t *testing.T) {
	got := Text(snapshot())
	for _, want := range []string{
		"CAR RENTAL AGREEMENT",
		"Agreement date:    2024-06-10",
		"Rental company:    Speedy Rentals",
		"Renter:            alice",
		"Vehicle:           Civic (2020)",
		"Pickup:            Airport on 2024-06-01 at 10:00",
		"Return:            Downtown on 2024-06-05 at 18:00",
		"Daily price:       45.00",
		"Booking status:    paid",
		"1. The renter must hold a valid driving licence",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Text() missing %q\n%s", want, got)
		}
	}
	if Text(snapshot()) != got {
		t.Error("Text() is not deterministic")
	}
}

func TestTextDefaultCompany(t *testing.T) {
	tests := []struct {
		name    string
		company string
	}{
		{"empty", ""},
		{"blank", "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := snapshot()
			s.CompanyName = tt.company
			if got := Text(s); !strings.Contains(got, "Rental company:    "+DefaultCompanyName) {
				t.Errorf("Text() did not fall back to %q:\n%s", DefaultCompanyName, got)
			}
		})
	}
}

func TestPDF(t *testing.T) {
	s := snapshot()
	s.RenterName = "Zoë"
	data, err := PDF(s)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("output is not a PDF: %q", data[:min(len(data), 16)])
	}
}

package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestCar_GetUserID(t *testing.T) {
	car := &Car{OwnerID: 42}
	if got := car.GetUserID(); got != 42 {
		t.Errorf("GetUserID() = %d, want 42", got)
	}
}

func TestCar_PriceMinorUnits(t *testing.T) {
	tests := []struct {
		name  string
		price float64
		want  int64
	}{
		{"whole", 100, 10000},
		{"cents", 49.99, 4999},
		{"float noise", 19.99, 1999},
		{"half cent rounds up", 0.005, 1},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Car{Price: tt.price}
			if got := c.PriceMinorUnits(); got != tt.want {
				t.Errorf("PriceMinorUnits() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCar_PriceString(t *testing.T) {
	c := &Car{Price: 45}
	if got := c.PriceString(); got != "45.00" {
		t.Errorf("PriceString() = %q, want 45.00", got)
	}
}

func TestParseTransmission(t *testing.T) {
	tests := []struct {
		in   string
		want Transmission
		ok   bool
	}{
		{"auto", TransmissionAuto, true},
		{"AUTO", TransmissionAuto, true},
		{" Manual ", TransmissionManual, true},
		{"automatic", TransmissionAuto, true},
		{"cvt", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTransmission(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseTransmission(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestBooking_GetUserID(t *testing.T) {
	b := &Booking{UserID: 7, CarID: 3}
	if got := b.GetUserID(); got != 7 {
		t.Errorf("GetUserID() = %d, want 7", got)
	}
}

func TestBookingStatus_Transitions(t *testing.T) {
	tests := []struct {
		from BookingStatus
		to   BookingStatus
		want bool
	}{
		{BookingPending, BookingApproved, true},
		{BookingPending, BookingRejected, true},
		{BookingPending, BookingPaid, false},
		{BookingApproved, BookingPaid, true},
		{BookingApproved, BookingRejected, false},
		{BookingApproved, BookingPending, false},
		{BookingRejected, BookingApproved, false},
		{BookingPaid, BookingApproved, false},
		{BookingPaid, BookingRejected, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBookingStatus_IsActive(t *testing.T) {
	for _, s := range ActiveStatuses {
		if !s.IsActive() {
			t.Errorf("%s should be active", s)
		}
	}
	if BookingRejected.IsActive() {
		t.Error("rejected should not hold dates")
	}
}

func TestOverlaps(t *testing.T) {
	existing := &Booking{PickupDate: MustDate("2024-06-01"), ReturnDate: MustDate("2024-06-05")}

	tests := []struct {
		name       string
		start, end string
		want       bool
	}{
		{"inside", "2024-06-02", "2024-06-03", true},
		{"straddles end", "2024-06-04", "2024-06-08", true},
		{"straddles start", "2024-05-28", "2024-06-02", true},
		{"covers", "2024-05-01", "2024-07-01", true},
		{"starts on return day", "2024-06-05", "2024-06-08", false},
		{"ends on pickup day", "2024-05-28", "2024-06-01", false},
		{"far after", "2024-07-01", "2024-07-03", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := existing.Overlaps(MustDate(tt.start), MustDate(tt.end)); got != tt.want {
				t.Errorf("Overlaps(%s, %s) = %v, want %v", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestDate_ScanAndValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "2024-06-01", "2024-06-01"},
		{"bytes", []byte("2024-06-01"), "2024-06-01"},
		{"timestamp text", "2024-06-01 00:00:00+00:00", "2024-06-01"},
		{"time", time.Date(2024, 6, 1, 15, 4, 0, 0, time.UTC), "2024-06-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			if err := d.Scan(tt.in); err != nil {
				t.Fatalf("Scan() error = %v", err)
			}
			v, err := d.Value()
			if err != nil {
				t.Fatalf("Value() error = %v", err)
			}
			if v != tt.want {
				t.Errorf("Value() = %v, want %s", v, tt.want)
			}
		})
	}

	var d Date
	if err := d.Scan(42); err == nil {
		t.Error("Scan(int) should fail")
	}
	if v, _ := (Date{}).Value(); v != nil {
		t.Errorf("zero Date Value() = %v, want nil", v)
	}
}

func TestDate_JSON(t *testing.T) {
	type wrapper struct {
		D Date `json:"d"`
	}
	b, err := json.Marshal(wrapper{D: MustDate("2024-06-01")})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"d":"2024-06-01"}` {
		t.Errorf("Marshal = %s", b)
	}

	var w wrapper
	if err := json.Unmarshal([]byte(`{"d":"2024-12-31"}`), &w); err != nil {
		t.Fatal(err)
	}
	if w.D.String() != "2024-12-31" {
		t.Errorf("Unmarshal = %s", w.D)
	}
	if err := json.Unmarshal([]byte(`{"d":"31/12/2024"}`), &w); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestDateOf(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	got := DateOf(time.Date(2024, 6, 1, 1, 30, 0, 0, loc))
	if got.String() != "2024-06-01" {
		t.Errorf("DateOf() = %s, want 2024-06-01", got)
	}
}

func TestRatingValid(t *testing.T) {
	for r, want := range map[int]bool{0: false, 1: true, 3: true, 5: true, 6: false, -1: false} {
		if got := RatingValid(r); got != want {
			t.Errorf("RatingValid(%d) = %v, want %v", r, got, want)
		}
	}
}

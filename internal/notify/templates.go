package notify

var builtin = map[Template]struct {
	subject string
	body    string
}{
	TemplateBookingApproved: {
		subject: "Booking Approved",
		body: `Hello {{.To.Name}},

Your booking has been approved!

Car: {{.Data.CarName}}
Pickup: {{.Data.PickupLocation}}
Drop: {{.Data.DropLocation}}
Date: {{.Data.PickupDate}}
Time: {{.Data.PickupTime}}

Thank you for choosing Royal Cars!
`,
	},
	TemplateBookingRejected: {
		subject: "Booking Rejected",
		body: `Hello {{.To.Name}},

Unfortunately, your booking has been rejected.

Car: {{.Data.CarName}}
Pickup: {{.Data.PickupLocation}}
Date: {{.Data.PickupDate}} {{.Data.PickupTime}}

You may contact us for further details.
`,
	},
	TemplatePaymentConfirmed: {
		subject: "Payment Confirmed",
		body: `Hello {{.To.Name}},

We received your payment for booking #{{.Data.BookingID}}.

Car: {{.Data.CarName}}
Pickup: {{.Data.PickupLocation}} on {{.Data.PickupDate}} at {{.Data.PickupTime}}
Return: {{.Data.DropLocation}} on {{.Data.ReturnDate}} at {{.Data.ReturnTime}}

Thank you for choosing Royal Cars!
`,
	},
	TemplateContract: {
		subject: "Your Rental Agreement",
		body: `Hello {{.To.Name}},

Please find your rental agreement below.

{{.Data.Text}}`,
	},
	TemplateOwnerApproved: {
		subject: "Account Approved",
		body: `Hello {{.To.Name}},

Your owner account has been approved by the admin.
You can now log in and start adding your cars.

Best regards,
Royal Cars Team
`,
	},
	TemplateContact: {
		subject: "[Royal Cars Contact] {{.Data.Subject}}",
		body: `From: {{.Data.Name}} <{{.Data.Email}}>

Message:
{{.Data.Message}}
`,
	},
}

// BookingData feeds the booking templates.
type BookingData struct {
	BookingID      uint
	CarName        string
	PickupLocation string
	DropLocation   string
	PickupDate     string
	PickupTime     string
	ReturnDate     string
	ReturnTime     string
}

// ContractData feeds the contract template.
type ContractData struct {
	Text string
}

// ContactData feeds the contact form template.
type ContactData struct {
	Name    string
	Email   string
	Subject string
	Message string
}

package integration_test

const (
	// User related constants
	TestUserId       = 1
	TestUserName     = "Ada Lovelace"
	TestUserEmail    = "ada@example.com"
	TestUserPhone    = "+15550100"
	TestUserPassword = "Test123!@#"

	// Screening related constants
	TestScreeningId     = 1
	CutoffScreeningId   = 2
	TestMovieTitle      = "Blade Runner"
	TestTheaterName     = "MegaCine Downtown"
	TestHallName        = "Hall 1"
	TestGatewayPayment  = "pi_3Nxyz"
	TestGatewayProvider = "stripe"
)

// Seat instance ids of TestScreeningId, as seeded by screenings_up.sql.
var TestSeatIds = []int{1, 2}

package domain

// ID is used across domain entities.
type ID int64

// Transaction codes.
const (
	TransactionStateTransfer = "ST"
)

// Rate master tags.
const (
	TavtTagDefault    = "AA"
	TavtTagIndividual = "II"
)

// Buyer types.
const (
	BuyerBusiness   = "Business"
	BuyerIndividual = "Individual"
)

// VehicleTrailer is the vin type that carries a Valorem schedule.
const VehicleTrailer = "trailer"

// Calculation branches.
const (
	BranchSales = "sales"
	BranchTavt  = "tavt"
)

// RequestContext carries authenticated user info when available.
type RequestContext struct {
	UserID ID     `json:"userId"`
	Role   string `json:"role"`
}

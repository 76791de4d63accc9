package models

// SequenceCounter holds the last number issued per entity and year.
type SequenceCounter struct {
	Entity string `gorm:"type:varchar(30);primaryKey" json:"entity"`
	Year   int    `gorm:"primaryKey;autoIncrement:false" json:"year"`
	Value  int    `gorm:"not null;default:0" json:"value"`
}

// TableName returns the table name for SequenceCounter
func (SequenceCounter) TableName() string {
	return "sequence_counters"
}

// Sequence entities and their number prefixes.
const (
	SequenceQuote    = "quote"
	SequenceInvoice  = "invoice"
	SequenceCustomer = "customer"
)

// SequencePrefixes maps a sequence entity to its document prefix.
var SequencePrefixes = map[string]string{
	SequenceQuote:    "DEV",
	SequenceInvoice:  "FAC",
	SequenceCustomer: "CLI",
}

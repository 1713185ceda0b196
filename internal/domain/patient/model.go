package patient

import (
	"encoding/json"
	"time"
)

// Patient maps to the patient table. DocumentID is the natural person
// identifier and primary key; it never changes once assigned.
// Antecedents is an opaque JSON document maintained by the client.
// GuardianID is a weak reference to another person's document id; it
// does not imply ownership and is never cascaded.
type Patient struct {
	DocumentID  string          `db:"document_id" json:"document_id"`
	FirstName   string          `db:"first_name" json:"first_name"`
	LastName    string          `db:"last_name" json:"last_name"`
	Phone       *string         `db:"phone" json:"phone,omitempty"`
	Address     *string         `db:"address" json:"address,omitempty"`
	BirthDate   *time.Time      `db:"birth_date" json:"birth_date,omitempty"`
	Email       *string         `db:"email" json:"email,omitempty"`
	Insurance   *string         `db:"insurance" json:"insurance,omitempty"`
	Antecedents json.RawMessage `db:"antecedents" json:"antecedents,omitempty"`
	GuardianID  *string         `db:"guardian_id" json:"guardian_id,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

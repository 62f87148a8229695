package models

import "time"

// Address slots.
const (
	AddressOrganisation = "organisation"
	AddressPostal       = "postal"
	AddressActivity     = "activity"
)

// Contact roles.
const (
	ContactPrimary   = "primary"
	ContactSecondary = "secondary"
)

// DefaultPlanCode is assigned to clubs created without a plan.
const DefaultPlanCode = "GRP"

// Club is a sporting club customer.
type Club struct {
	ID                    string        `gorm:"primaryKey;type:char(36)" json:"id"`
	LegalEntityName       string        `gorm:"size:255;not null;index" json:"legalEntityName"`
	ShortenedName         string        `gorm:"size:120" json:"shortenedName"`
	ABN                   string        `gorm:"column:abn;size:11;not null;uniqueIndex" json:"abn"`
	IncorporationNumber   string        `gorm:"size:64" json:"incorporationNumber"`
	EntityType            string        `gorm:"size:64" json:"entityType"`
	LGA                   string        `gorm:"column:lga;size:120" json:"lga"`
	About                 string        `gorm:"type:text" json:"about"`
	Purpose               string        `gorm:"type:text" json:"purpose"`
	EstablishedYear       *int          `json:"establishedYear"`
	MemberCount           *int          `json:"memberCount"`
	JuniorMemberCount     *int          `json:"juniorMemberCount"`
	Wishlist              JSON          `json:"wishlist"`
	GSTRegistered         bool          `gorm:"column:gst_registered" json:"gstRegistered"`
	DGRRegistered         bool          `gorm:"column:dgr_registered" json:"dgrRegistered"`
	ACNCRegistered        bool          `gorm:"column:acnc_registered" json:"acncRegistered"`
	PriorGrants           bool          `json:"priorGrants"`
	OutstandingAcquittals bool          `json:"outstandingAcquittals"`
	PlanCode              string        `gorm:"size:16;not null;default:GRP;index" json:"planCode"`
	SubscriptionActive    bool          `gorm:"not null;index" json:"subscriptionActive"`
	AccountExecutiveID    *string       `gorm:"type:char(36);index" json:"accountExecutiveId"`
	AccountExecutive      *StaffMember  `gorm:"foreignKey:AccountExecutiveID" json:"accountExecutive,omitempty"`
	AccessCode            *string       `gorm:"size:64;uniqueIndex" json:"-"`
	CodeVersion           int           `gorm:"not null;default:1" json:"-"`
	Addresses             []ClubAddress `gorm:"foreignKey:ClubID" json:"addresses,omitempty"`
	Contacts              []ClubContact `gorm:"foreignKey:ClubID" json:"contacts,omitempty"`
	CreatedAt             time.Time     `json:"createdAt"`
	UpdatedAt             time.Time     `json:"updatedAt"`
}

// DisplayName prefers the shortened name.
func (c *Club) DisplayName() string {
	if c.ShortenedName != "" {
		return c.ShortenedName
	}
	return c.LegalEntityName
}

// State is the club's state, taken from the organisation address.
func (c *Club) State() string {
	for _, a := range c.Addresses {
		if a.AddressType == AddressOrganisation {
			return a.State
		}
	}
	return ""
}

// ClubAddress is one of the three address slots of a club.
type ClubAddress struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	ClubID      string `gorm:"type:char(36);not null;uniqueIndex:idx_club_address_type" json:"-"`
	AddressType string `gorm:"size:16;not null;uniqueIndex:idx_club_address_type" json:"addressType"`
	Street      string `gorm:"size:255" json:"street"`
	Suburb      string `gorm:"size:120" json:"suburb"`
	State       string `gorm:"size:8;index" json:"state"`
	Postcode    string `gorm:"size:8" json:"postcode"`
}

// ClubContact is the primary or secondary contact of a club.
type ClubContact struct {
	ID                 uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	ClubID             string `gorm:"type:char(36);not null;uniqueIndex:idx_club_contact_role" json:"-"`
	Role               string `gorm:"size:16;not null;uniqueIndex:idx_club_contact_role" json:"role"`
	FullName           string `gorm:"size:255" json:"fullName"`
	Position           string `gorm:"size:120" json:"position"`
	Email              string `gorm:"size:255" json:"email"`
	Phone              string `gorm:"size:32" json:"phone"`
	AuthorizedToSubmit bool   `json:"authorizedToSubmit"`
}

// StaffMember is a consultancy user, keyed by the identity provider user id.
type StaffMember struct {
	ID        string    `gorm:"primaryKey;type:char(36)" json:"id"`
	FullName  string    `gorm:"size:255;not null" json:"fullName"`
	Email     string    `gorm:"size:255;index" json:"email"`
	Role      string    `gorm:"size:32;not null;default:staff" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Club) TableName() string {
	return "clubs"
}

func (ClubAddress) TableName() string {
	return "club_addresses"
}

func (ClubContact) TableName() string {
	return "club_contacts"
}

func (StaffMember) TableName() string {
	return "staff_members"
}

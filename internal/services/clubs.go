package services

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/localnerve/grants-portal/internal/format"
	"github.com/localnerve/grants-portal/internal/models"
	"github.com/localnerve/grants-portal/internal/pipeline"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClubQuery filters and orders the club directory.
type ClubQuery struct {
	Search string
	State  string
	Plan   string
	Status string
	AE     string
	Sort   string
	Order  string
	Page
}

var clubSortColumns = map[string]string{
	"name":           "shortened_name",
	"shortened_name": "shortened_name",
	"lastActive":     "updated_at",
	"updated_at":     "updated_at",
}

// StaffRef is an account executive reference.
type StaffRef struct {
	ID   *string `json:"id"`
	Name string  `json:"name"`
}

// ClubRow is one directory row.
type ClubRow struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	LGA                string    `json:"lga"`
	Plan               string    `json:"plan"`
	AE                 StaffRef  `json:"ae"`
	State              string    `json:"state"`
	SubscriptionActive bool      `json:"subscriptionActive"`
	Apps               int64     `json:"apps"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// ClubPage is a page of the directory.
type ClubPage struct {
	Clubs      []ClubRow `json:"clubs"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PerPage    int       `json:"perPage"`
	TotalPages int       `json:"totalPages"`
}

// ListClubs pages through the club directory. The state filter matches the
// organisation address.
func ListClubs(db *gorm.DB, q ClubQuery) (*ClubPage, error) {
	page := NewPage(q.Page.Page, q.Page.PerPage)

	base := db.Model(&models.Club{})
	if q.Search != "" {
		pattern := likePattern(q.Search)
		base = base.Where("LOWER(shortened_name) LIKE ? OR LOWER(legal_entity_name) LIKE ?", pattern, pattern)
	}
	if q.State != "" {
		base = base.Where("EXISTS (SELECT 1 FROM club_addresses a WHERE a.club_id = clubs.id AND a.address_type = ? AND a.state = ?)",
			models.AddressOrganisation, q.State)
	}
	if q.Plan != "" {
		base = base.Where("plan_code = ?", q.Plan)
	}
	switch q.Status {
	case "active":
		base = base.Where("subscription_active = ?", true)
	case "inactive":
		base = base.Where("subscription_active = ?", false)
	}
	if q.AE != "" {
		base = base.Where("account_executive_id = ?", q.AE)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, storeErr(err)
	}

	column, ok := clubSortColumns[q.Sort]
	if !ok {
		column = "shortened_name"
	}
	var clubs []models.Club
	err := base.Session(&gorm.Session{}).
		Preload("AccountExecutive").
		Preload("Addresses").
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: q.Order == "desc"}).
		Order("legal_entity_name").
		Order("id").
		Offset(page.Offset()).
		Limit(page.PerPage).
		Find(&clubs).Error
	if err != nil {
		return nil, storeErr(err)
	}

	ids := make([]string, len(clubs))
	for i, c := range clubs {
		ids[i] = c.ID
	}
	counts, err := applicationCounts(db, "club_id", ids)
	if err != nil {
		return nil, err
	}

	out := &ClubPage{
		Clubs:      make([]ClubRow, 0, len(clubs)),
		Total:      total,
		Page:       page.Page,
		PerPage:    page.PerPage,
		TotalPages: page.TotalPages(total),
	}
	for i := range clubs {
		c := &clubs[i]
		out.Clubs = append(out.Clubs, ClubRow{
			ID:                 c.ID,
			Name:               c.DisplayName(),
			LGA:                orPlaceholder(c.LGA),
			Plan:               c.PlanCode,
			AE:                 staffRef(c.AccountExecutive),
			State:              orPlaceholder(c.State()),
			SubscriptionActive: c.SubscriptionActive,
			Apps:               counts[c.ID],
			UpdatedAt:          c.UpdatedAt,
		})
	}
	return out, nil
}

func staffRef(s *models.StaffMember) StaffRef {
	if s == nil {
		return StaffRef{Name: "Unassigned"}
	}
	id := s.ID
	return StaffRef{ID: &id, Name: s.FullName}
}

func orPlaceholder(s string) string {
	if s == "" {
		return format.Placeholder
	}
	return s
}

// FilterOption is a select option.
type FilterOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ClubFilters lists the account executives for the directory filter.
func ClubFilters(db *gorm.DB) ([]FilterOption, error) {
	var staff []models.StaffMember
	if err := db.Order("full_name").Find(&staff).Error; err != nil {
		return nil, storeErr(err)
	}
	out := make([]FilterOption, 0, len(staff))
	for _, s := range staff {
		out = append(out, FilterOption{Value: s.ID, Label: s.FullName})
	}
	return out, nil
}

var abnPattern = regexp.MustCompile(`^\d{11}$`)

// NormalizeABN strips whitespace and checks for 11 digits.
func NormalizeABN(raw string) (string, bool) {
	abn := strings.Join(strings.Fields(raw), "")
	return abn, abnPattern.MatchString(abn)
}

// AddressInput is one address slot.
type AddressInput struct {
	Street   string `json:"street"`
	Suburb   string `json:"suburb"`
	State    string `json:"state"`
	Postcode string `json:"postcode"`
}

// ContactInput is one contact slot.
type ContactInput struct {
	Name         string `json:"name"`
	Position     string `json:"position"`
	Email        string `json:"email"`
	Mobile       string `json:"mobile"`
	IsAuthorized bool   `json:"isAuthorized"`
}

// ClubInput creates or updates a club. On update nil fields are unchanged and
// address or contact slots present in the maps replace the stored slot.
type ClubInput struct {
	LegalEntityName       *string                 `json:"legalEntityName"`
	ShortenedName         *string                 `json:"shortenedName"`
	ABN                   *string                 `json:"abn"`
	IncorporationNumber   *string                 `json:"incorporationNumber"`
	EntityType            *string                 `json:"entityType"`
	LGA                   *string                 `json:"lga"`
	About                 *string                 `json:"about"`
	Purpose               *string                 `json:"purpose"`
	EstablishedYear       *int                    `json:"establishedYear"`
	MemberCount           *int                    `json:"memberCount"`
	JuniorMemberCount     *int                    `json:"juniorMemberCount"`
	Wishlist              models.Wishlist         `json:"wishlist"`
	GSTRegistered         *bool                   `json:"gstRegistered"`
	DGRRegistered         *bool                   `json:"dgrRegistered"`
	ACNCRegistered        *bool                   `json:"acncRegistered"`
	PriorGrants           *bool                   `json:"priorGrants"`
	OutstandingAcquittals *bool                   `json:"outstandingAcquittals"`
	PlanCode              *string                 `json:"planCode"`
	SubscriptionActive    *bool                   `json:"subscriptionActive"`
	AccountExecutiveID    *string                 `json:"accountExecutiveId"`
	Addresses             map[string]AddressInput `json:"addresses"`
	Contacts              map[string]ContactInput `json:"contacts"`
}

// SelfService drops the fields a club may not change about itself.
func (in *ClubInput) SelfService() {
	in.ABN = nil
	in.PlanCode = nil
	in.SubscriptionActive = nil
	in.AccountExecutiveID = nil
}

func (in *ClubInput) validate(creating bool) error {
	var errs pipeline.ValidationErrors
	if creating && (in.LegalEntityName == nil || strings.TrimSpace(*in.LegalEntityName) == "") {
		errs = append(errs, required("legalEntityName"))
	}
	if !creating && in.LegalEntityName != nil && strings.TrimSpace(*in.LegalEntityName) == "" {
		errs = append(errs, required("legalEntityName"))
	}
	if in.ABN != nil {
		abn, ok := NormalizeABN(*in.ABN)
		if !ok {
			errs = append(errs, &pipeline.ValidationError{Field: "abn", Value: *in.ABN, Err: ErrInvalidFormat})
		}
		in.ABN = &abn
	} else if creating {
		errs = append(errs, required("abn"))
	}
	for slot := range in.Addresses {
		if slot != models.AddressOrganisation && slot != models.AddressPostal && slot != models.AddressActivity {
			errs = append(errs, &pipeline.ValidationError{
				Field:   "addresses." + slot,
				Value:   slot,
				Allowed: []string{models.AddressOrganisation, models.AddressPostal, models.AddressActivity},
				Err:     pipeline.ErrUnknownField,
			})
		}
	}
	for role := range in.Contacts {
		if role != models.ContactPrimary && role != models.ContactSecondary {
			errs = append(errs, &pipeline.ValidationError{
				Field:   "contacts." + role,
				Value:   role,
				Allowed: []string{models.ContactPrimary, models.ContactSecondary},
				Err:     pipeline.ErrUnknownField,
			})
		}
	}
	for field, n := range map[string]*int{
		"establishedYear":   in.EstablishedYear,
		"memberCount":       in.MemberCount,
		"juniorMemberCount": in.JuniorMemberCount,
	} {
		if n != nil && *n < 0 {
			errs = append(errs, &pipeline.ValidationError{Field: field, Err: ErrOutOfRange})
		}
	}
	if len(errs) == 0 {
		return nil
	}
	sortErrors(errs)
	return errs
}

func (in *ClubInput) apply(c *models.Club) error {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&c.LegalEntityName, in.LegalEntityName)
	setString(&c.ShortenedName, in.ShortenedName)
	setString(&c.ABN, in.ABN)
	setString(&c.IncorporationNumber, in.IncorporationNumber)
	setString(&c.EntityType, in.EntityType)
	setString(&c.LGA, in.LGA)
	setString(&c.About, in.About)
	setString(&c.Purpose, in.Purpose)
	setString(&c.PlanCode, in.PlanCode)
	if in.EstablishedYear != nil {
		c.EstablishedYear = in.EstablishedYear
	}
	if in.MemberCount != nil {
		c.MemberCount = in.MemberCount
	}
	if in.JuniorMemberCount != nil {
		c.JuniorMemberCount = in.JuniorMemberCount
	}
	setBool(&c.GSTRegistered, in.GSTRegistered)
	setBool(&c.DGRRegistered, in.DGRRegistered)
	setBool(&c.ACNCRegistered, in.ACNCRegistered)
	setBool(&c.PriorGrants, in.PriorGrants)
	setBool(&c.OutstandingAcquittals, in.OutstandingAcquittals)
	setBool(&c.SubscriptionActive, in.SubscriptionActive)
	if in.AccountExecutiveID != nil {
		if *in.AccountExecutiveID == "" {
			c.AccountExecutiveID = nil
		} else {
			id := *in.AccountExecutiveID
			c.AccountExecutiveID = &id
		}
	}
	if in.Wishlist != nil {
		w, err := models.NewJSON(in.Wishlist)
		if err != nil {
			return err
		}
		c.Wishlist = w
	}
	if c.PlanCode == "" {
		c.PlanCode = models.DefaultPlanCode
	}
	return nil
}

// replaceSlots upserts the address and contact slots named in the input.
func (in *ClubInput) replaceSlots(tx *gorm.DB, clubID string) error {
	for slot, a := range in.Addresses {
		row := models.ClubAddress{ClubID: clubID, AddressType: slot, Street: a.Street, Suburb: a.Suburb, State: strings.ToUpper(a.State), Postcode: a.Postcode}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "club_id"}, {Name: "address_type"}},
			DoUpdates: clause.AssignmentColumns([]string{"street", "suburb", "state", "postcode"}),
		}).Create(&row).Error
		if err != nil {
			return err
		}
	}
	for role, ct := range in.Contacts {
		row := models.ClubContact{ClubID: clubID, Role: role, FullName: ct.Name, Position: ct.Position, Email: ct.Email, Phone: ct.Mobile, AuthorizedToSubmit: ct.IsAuthorized}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "club_id"}, {Name: "role"}},
			DoUpdates: clause.AssignmentColumns([]string{"full_name", "position", "email", "phone", "authorized_to_submit"}),
		}).Create(&row).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func abnTaken(tx *gorm.DB, abn, exceptID string) error {
	var count int64
	q := tx.Model(&models.Club{}).Where("abn = ?", abn)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return conflict("a club with this ABN already exists")
	}
	return nil
}

// CreateClub adds a club with an active subscription unless told otherwise.
func CreateClub(db *gorm.DB, in ClubInput) (*models.Club, error) {
	if err := in.validate(true); err != nil {
		return nil, err
	}
	club := models.Club{SubscriptionActive: true, CodeVersion: 1}
	if err := in.apply(&club); err != nil {
		return nil, err
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := abnTaken(tx, club.ABN, ""); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&club).Error; err != nil {
			return err
		}
		return in.replaceSlots(tx, club.ID)
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return &club, nil
}

// UpdateClub edits a club. Used by staff edits and club self-service.
func UpdateClub(db *gorm.DB, clubID string, in ClubInput) (*models.Club, error) {
	if err := in.validate(false); err != nil {
		return nil, err
	}

	var club models.Club
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := silent(tx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&club, "id = ?", clubID).Error; err != nil {
			return err
		}
		if in.ABN != nil {
			if err := abnTaken(tx, *in.ABN, club.ID); err != nil {
				return err
			}
		}
		if err := in.apply(&club); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(&club).Error; err != nil {
			return err
		}
		return in.replaceSlots(tx, club.ID)
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return &club, nil
}

// ContactView is a contact as shown on the club detail.
type ContactView struct {
	Name         string `json:"name"`
	Position     string `json:"position"`
	Email        string `json:"email"`
	Mobile       string `json:"mobile"`
	IsAuthorized bool   `json:"isAuthorized"`
}

// ClubDetail is the club detail view.
type ClubDetail struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	ShortName          string    `json:"shortName"`
	Initials           string    `json:"initials"`
	ABN                string    `json:"abn"`
	EntityType         string    `json:"entityType"`
	Plan               string    `json:"plan"`
	SubscriptionActive bool      `json:"subscriptionActive"`
	CreatedAt          time.Time `json:"createdAt"`
	State              string    `json:"state"`
	LGA                string    `json:"lga"`
	AE                 StaffRef  `json:"ae"`

	PrimaryContact   *ContactView      `json:"primaryContact"`
	SecondaryContact *ContactView      `json:"secondaryContact"`
	Addresses        map[string]string `json:"addresses"`

	About                 string          `json:"about"`
	Purpose               string          `json:"purpose"`
	IncorporationNumber   string          `json:"incorporationNumber"`
	EstablishedYear       *int            `json:"establishedYear"`
	MemberCount           *int            `json:"memberCount"`
	JuniorMemberCount     *int            `json:"juniorMemberCount"`
	GSTRegistered         bool            `json:"gstRegistered"`
	DGRRegistered         bool            `json:"dgrRegistered"`
	ACNCRegistered        bool            `json:"acncRegistered"`
	PriorGrants           bool            `json:"priorGrants"`
	OutstandingAcquittals bool            `json:"outstandingAcquittals"`
	Wishlist              models.Wishlist `json:"wishlist"`
	ApplicationCount      int64           `json:"applicationCount"`
	PendingItemCount      int64           `json:"pendingItemCount"`
	Onboarded             bool            `json:"onboarded"`
}

// GetClub loads a club with its slots, account executive and application
// summary. The independent reads run concurrently.
func GetClub(ctx context.Context, db *gorm.DB, clubID string) (*ClubDetail, error) {
	var (
		club      models.Club
		addresses []models.ClubAddress
		contacts  []models.ClubContact
		apps      int64
		pending   int64
	)

	g, gctx := errgroup.WithContext(ctx)
	q := func() *gorm.DB { return silent(db).WithContext(gctx) }
	g.Go(func() error {
		return q().Preload("AccountExecutive").First(&club, "id = ?", clubID).Error
	})
	g.Go(func() error {
		return q().Where("club_id = ?", clubID).Find(&addresses).Error
	})
	g.Go(func() error {
		return q().Where("club_id = ?", clubID).Find(&contacts).Error
	})
	g.Go(func() error {
		return q().Model(&models.GrantApplication{}).Where("club_id = ?", clubID).Count(&apps).Error
	})
	g.Go(func() error {
		return q().Model(&models.PendingItem{}).
			Joins("JOIN grant_applications ON grant_applications.id = pending_items.grant_application_id").
			Where("grant_applications.club_id = ? AND pending_items.status = ?", clubID, string(pipeline.ItemPending)).
			Count(&pending).Error
	})
	if err := g.Wait(); err != nil {
		return nil, storeErr(err)
	}

	club.Addresses = addresses
	wishlist, err := models.DecodeWishlist(club.Wishlist)
	if err != nil {
		return nil, storeErr(err)
	}

	detail := &ClubDetail{
		ID:                    club.ID,
		Name:                  club.LegalEntityName,
		ShortName:             club.DisplayName(),
		Initials:              format.Initials(club.DisplayName()),
		ABN:                   club.ABN,
		EntityType:            club.EntityType,
		Plan:                  club.PlanCode,
		SubscriptionActive:    club.SubscriptionActive,
		CreatedAt:             club.CreatedAt,
		State:                 orPlaceholder(club.State()),
		LGA:                   orPlaceholder(club.LGA),
		AE:                    staffRef(club.AccountExecutive),
		Addresses:             make(map[string]string, 3),
		About:                 club.About,
		Purpose:               club.Purpose,
		IncorporationNumber:   club.IncorporationNumber,
		EstablishedYear:       club.EstablishedYear,
		MemberCount:           club.MemberCount,
		JuniorMemberCount:     club.JuniorMemberCount,
		GSTRegistered:         club.GSTRegistered,
		DGRRegistered:         club.DGRRegistered,
		ACNCRegistered:        club.ACNCRegistered,
		PriorGrants:           club.PriorGrants,
		OutstandingAcquittals: club.OutstandingAcquittals,
		Wishlist:              wishlist,
		ApplicationCount:      apps,
		PendingItemCount:      pending,
		Onboarded:             club.About != "",
	}
	for _, slot := range []string{models.AddressOrganisation, models.AddressPostal, models.AddressActivity} {
		detail.Addresses[slot] = format.Placeholder
	}
	for _, a := range addresses {
		detail.Addresses[a.AddressType] = formatAddress(a)
	}
	for _, ct := range contacts {
		v := &ContactView{Name: ct.FullName, Position: ct.Position, Email: ct.Email, Mobile: ct.Phone, IsAuthorized: ct.AuthorizedToSubmit}
		switch ct.Role {
		case models.ContactPrimary:
			detail.PrimaryContact = v
		case models.ContactSecondary:
			detail.SecondaryContact = v
		}
	}
	return detail, nil
}

// formatAddress joins the non-empty parts as street, suburb, state, postcode.
func formatAddress(a models.ClubAddress) string {
	var parts []string
	for _, p := range []string{a.Street, a.Suburb, a.State, a.Postcode} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return format.Placeholder
	}
	return strings.Join(parts, ", ")
}

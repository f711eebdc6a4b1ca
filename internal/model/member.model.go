package model

import (
	"strings"
	"time"
	"unicode"
)

// MemberStatus is the lifecycle state of a member account.
type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "active"
	MemberStatusInactive MemberStatus = "inactive"
	MemberStatusClosed   MemberStatus = "closed"
)

// UnknownMemberName labels transactions whose member is missing from the registry.
const UnknownMemberName = "Unknown member"

func (s MemberStatus) Valid() bool {
	switch s {
	case MemberStatusActive, MemberStatusInactive, MemberStatusClosed:
		return true
	}
	return false
}

// Contributing reports whether a member in this status takes part in group
// totals and the interest split. Closed members keep their history.
func (s MemberStatus) Contributing() bool {
	return s == MemberStatusActive || s == MemberStatusClosed
}

// CanTransitionTo reports whether a member may move from s to next. Closed is
// terminal; staying in the same status is always allowed.
func (s MemberStatus) CanTransitionTo(next MemberStatus) bool {
	if !next.Valid() {
		return false
	}
	if s == MemberStatusClosed {
		return next == MemberStatusClosed
	}
	return true
}

type Member struct {
	ID        string       `json:"id"`
	GroupID   string       `json:"-"`
	Name      string       `json:"name"`
	Phone     string       `json:"phone,omitempty"`
	Aadhaar   string       `json:"aadhaar,omitempty"`
	JoinDate  time.Time    `json:"join_date"`
	Status    MemberStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (m *Member) Contributing() bool {
	return m != nil && m.Status.Contributing()
}

// MemberView is the API representation; the aadhaar number is formatted.
type MemberView struct {
	*Member
	Aadhaar string `json:"aadhaar,omitempty"`
}

func (m *Member) View() MemberView {
	return MemberView{Member: m, Aadhaar: FormatAadhaar(m.Aadhaar)}
}

// NormalizeAadhaar keeps only the digits of an aadhaar number.
func NormalizeAadhaar(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// FormatAadhaar renders a 12 digit aadhaar number as XXXX-XXXX-XXXX. Anything
// else is returned unchanged.
func FormatAadhaar(s string) string {
	digits := NormalizeAadhaar(s)
	if len(digits) != 12 {
		return s
	}
	return digits[0:4] + "-" + digits[4:8] + "-" + digits[8:12]
}

type MemberCreateRequest struct {
	ID       string       `json:"id" validate:"required,max=64"`
	Name     string       `json:"name" validate:"required,max=200"`
	Phone    string       `json:"phone" validate:"omitempty,max=20"`
	Aadhaar  string       `json:"aadhaar"`
	JoinDate time.Time    `json:"join_date"`
	Status   MemberStatus `json:"status"`
}

func (p *MemberCreateRequest) Validate() error {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.Phone = strings.TrimSpace(p.Phone)
	if err := validateStruct(p); err != nil {
		return err
	}
	aadhaar, err := validAadhaar(p.Aadhaar)
	if err != nil {
		return err
	}
	p.Aadhaar = aadhaar

	if p.Status == "" {
		p.Status = MemberStatusActive
	}
	if p.Status != MemberStatusActive && p.Status != MemberStatusInactive {
		return NewValidationError("status", "new members must be active or inactive")
	}
	return nil
}

func (p MemberCreateRequest) ToMember(now time.Time) *Member {
	joined := p.JoinDate
	if joined.IsZero() {
		joined = now
	}
	return &Member{
		ID:       p.ID,
		Name:     p.Name,
		Phone:    p.Phone,
		Aadhaar:  p.Aadhaar,
		JoinDate: joined,
		Status:   p.Status,
	}
}

// MemberUpdateRequest carries the editable profile fields; nil means unchanged.
type MemberUpdateRequest struct {
	Name     *string    `json:"name" validate:"omitempty,max=200"`
	Phone    *string    `json:"phone" validate:"omitempty,max=20"`
	Aadhaar  *string    `json:"aadhaar"`
	JoinDate *time.Time `json:"join_date"`
}

func (p *MemberUpdateRequest) Validate() error {
	if err := validateStruct(p); err != nil {
		return err
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return NewValidationError("name", "is required")
	}
	if p.Aadhaar != nil {
		aadhaar, err := validAadhaar(*p.Aadhaar)
		if err != nil {
			return err
		}
		p.Aadhaar = &aadhaar
	}
	return nil
}

func (p MemberUpdateRequest) Apply(m *Member) {
	if p.Name != nil {
		m.Name = strings.TrimSpace(*p.Name)
	}
	if p.Phone != nil {
		m.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Aadhaar != nil {
		m.Aadhaar = *p.Aadhaar
	}
	if p.JoinDate != nil {
		m.JoinDate = *p.JoinDate
	}
}

func validAadhaar(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	digits := NormalizeAadhaar(raw)
	if len(digits) != 12 {
		return "", NewValidationError("aadhaar", "must contain 12 digits")
	}
	return digits, nil
}

type MemberStatusRequest struct {
	Status MemberStatus `json:"status" validate:"required"`
}

func (p *MemberStatusRequest) Validate() error {
	if err := validateStruct(p); err != nil {
		return err
	}
	if !p.Status.Valid() {
		return NewValidationError("status", "must be active, inactive or closed")
	}
	return nil
}

// MemberRenameRequest changes a member id; every transaction follows it.
type MemberRenameRequest struct {
	NewID string `json:"new_id" validate:"required,max=64"`
}

func (p *MemberRenameRequest) Validate() error {
	p.NewID = strings.TrimSpace(p.NewID)
	return validateStruct(p)
}

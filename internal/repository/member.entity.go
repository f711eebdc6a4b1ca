package repository

import (
	"time"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/pg"
)

type MemberEntity struct {
	GroupID  string    `db:"group_id"  gorm:"primaryKey;column:group_id;size:64"`
	ID       string    `db:"id"        gorm:"primaryKey;column:id;size:64"`
	Name     string    `db:"name"      gorm:"column:name;not null"`
	Phone    string    `db:"phone"     gorm:"column:phone;size:20"`
	Aadhaar  string    `db:"aadhaar"   gorm:"column:aadhaar;size:12"`
	JoinDate time.Time `db:"join_date" gorm:"column:join_date;not null"`
	Status   string    `db:"status"    gorm:"column:status;not null;index"`
	pg.Model
}

func (MemberEntity) TableName() string { return "members" }

func toMemberEntity(m *model.Member) *MemberEntity {
	return &MemberEntity{
		GroupID:  m.GroupID,
		ID:       m.ID,
		Name:     m.Name,
		Phone:    m.Phone,
		Aadhaar:  m.Aadhaar,
		JoinDate: m.JoinDate,
		Status:   string(m.Status),
		Model: pg.Model{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
	}
}

func toMemberModel(e *MemberEntity) *model.Member {
	return &model.Member{
		ID:        e.ID,
		GroupID:   e.GroupID,
		Name:      e.Name,
		Phone:     e.Phone,
		Aadhaar:   e.Aadhaar,
		JoinDate:  e.JoinDate,
		Status:    model.MemberStatus(e.Status),
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func toMemberModels(entities []*MemberEntity) []*model.Member {
	members := make([]*model.Member, 0, len(entities))
	for _, e := range entities {
		members = append(members, toMemberModel(e))
	}
	return members
}

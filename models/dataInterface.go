package models

import (
	"time"
)

type Identifier interface {
	GetId() int
}

// interface for dataloader result
type Data interface {
	Identifier
	GetDefault(int) Data
}

func (m Mission) GetId() int {
	return m.ID
}

func (m Mission) GetDefault(id int) Data {
	return Mission{
		ID:        id,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func (u User) GetId() int {
	return u.ID
}

func (u User) GetDefault(id int) Data {
	return User{
		ID:        id,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func (d Document) GetId() int {
	return d.ID
}

func (d Document) GetDefault(id int) Data {
	return Document{
		ID: id,
	}
}

// loader loading more than one model by one id
type RelatedData interface {
	GetReferenceId() int
}

func (d Document) GetReferenceId() int {
	return d.ReportId
}

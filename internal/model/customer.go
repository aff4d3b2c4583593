package model

import "time"

type Customer struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Phone       *string   `db:"phone" json:"phone"`
	CompanyName *string   `db:"company_name" json:"companyName"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

package entity

import "time"

// Visit is a customer checking in at a business. Rows are never updated.
type Visit struct {
	ID          int64     `db:"id" json:"id,string"`
	DateTime    time.Time `db:"date_time" json:"date_time"`
	CustomerID  int64     `db:"customer_id" json:"customer"`
	BusinessID  int64     `db:"business_id" json:"business"`
	NumVisitors int       `db:"num_visitors" json:"num_visitors"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// UnregisteredVisit is a walk-in recorded by a business for someone without
// an account.
type UnregisteredVisit struct {
	ID          int64     `db:"id" json:"id,string"`
	DateTime    time.Time `db:"date_time" json:"date_time"`
	FirstName   string    `db:"first_name" json:"first_name"`
	LastName    string    `db:"last_name" json:"last_name"`
	PhoneNum    string    `db:"phone_num" json:"phone_num"`
	BusinessID  int64     `db:"business_id" json:"business"`
	NumVisitors int       `db:"num_visitors" json:"num_visitors"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

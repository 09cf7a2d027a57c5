// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

// Company is a cruise line.
type Company struct {
	ID   int64  `db:"id" json:"companyId"`
	Name string `db:"name" json:"companyName"`
}

// Ship belongs to a company and sails cruises.
type Ship struct {
	ID        int64  `db:"id" json:"shipId"`
	CompanyID int64  `db:"company_id" json:"companyId"`
	Name      string `db:"name" json:"shipName"`
}

// Cruise is a sailing identified by its departure date and ship.
type Cruise struct {
	ID            int64  `db:"id" json:"cruiseId"`
	DepartureDate string `db:"departure_date" json:"departureDate"`
	ShipID        int64  `db:"ship_id" json:"shipId"`
	ShipName      string `db:"ship_name" json:"shipName"`
	CreatedAt     int64  `db:"created_at" json:"-"`
}

// Membership links an account to a cruise it joined.
type Membership struct {
	UserID   int64 `db:"user_id" json:"userId"`
	CruiseID int64 `db:"cruise_id" json:"cruiseId"`
	JoinedAt int64 `db:"joined_at" json:"joinedAt"`
}

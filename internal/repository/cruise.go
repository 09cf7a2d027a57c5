// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"codeberg.org/typecode/accounts/internal/models"
)

// ListCompanies returns the cruise lines of the catalog by name.
func (r *Repository) ListCompanies(ctx context.Context) ([]models.Company, error) {
	return doValue(ctx, r, func(ctx context.Context) ([]models.Company, error) {
		companies := []models.Company{}
		if err := r.db.SelectContext(ctx, &companies,
			`SELECT id, name FROM companies ORDER BY name, id`); err != nil {
			return nil, err
		}
		return companies, nil
	})
}

// ListShipsByCompany returns the ships of a company by name. An unknown
// company has no ships.
func (r *Repository) ListShipsByCompany(ctx context.Context, companyID int64) ([]models.Ship, error) {
	return doValue(ctx, r, func(ctx context.Context) ([]models.Ship, error) {
		ships := []models.Ship{}
		if err := r.db.SelectContext(ctx, &ships,
			`SELECT id, company_id, name FROM ships WHERE company_id = ? ORDER BY name, id`, companyID); err != nil {
			return nil, err
		}
		return ships, nil
	})
}

// JoinCruise adds the user to the cruise departing on departureDate with the
// given ship, creating the cruise on first join. Joining twice is a no-op.
// Ships outside the catalog are rejected with ErrUnknownShip.
func (r *Repository) JoinCruise(ctx context.Context, userID int64, departureDate string, shipID int64) (*models.Cruise, error) {
	return doValue(ctx, r, func(ctx context.Context) (*models.Cruise, error) {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = tx.Rollback()
		}()

		var shipName string
		if err := tx.GetContext(ctx, &shipName, `SELECT name FROM ships WHERE id = ?`, shipID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrUnknownShip
			}
			return nil, fmt.Errorf("failed to load ship: %w", err)
		}

		now := r.now().Unix()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cruises (departure_date, ship_id, created_at) VALUES (?, ?, ?)
			ON CONFLICT (departure_date, ship_id) DO NOTHING`,
			departureDate, shipID, now); err != nil {
			return nil, fmt.Errorf("failed to create cruise: %w", err)
		}

		var cruise models.Cruise
		if err := tx.GetContext(ctx, &cruise,
			`SELECT id, departure_date, ship_id, created_at FROM cruises WHERE departure_date = ? AND ship_id = ?`,
			departureDate, shipID); err != nil {
			return nil, fmt.Errorf("failed to load cruise: %w", err)
		}
		cruise.ShipName = shipName

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cruise_members (user_id, cruise_id, joined_at) VALUES (?, ?, ?)
			ON CONFLICT (user_id, cruise_id) DO NOTHING`,
			userID, cruise.ID, now); err != nil {
			return nil, fmt.Errorf("failed to add membership: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return &cruise, nil
	})
}

// LeaveCruise removes the user's membership of a cruise.
func (r *Repository) LeaveCruise(ctx context.Context, userID, cruiseID int64) error {
	return r.do(ctx, func(ctx context.Context) error {
		res, err := r.db.ExecContext(ctx,
			`DELETE FROM cruise_members WHERE user_id = ? AND cruise_id = ?`, userID, cruiseID)
		if err != nil {
			return fmt.Errorf("failed to leave cruise: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// GetMembership returns the user's membership of a cruise.
func (r *Repository) GetMembership(ctx context.Context, userID, cruiseID int64) (*models.Membership, error) {
	return doValue(ctx, r, func(ctx context.Context) (*models.Membership, error) {
		var m models.Membership
		err := r.db.GetContext(ctx, &m,
			`SELECT user_id, cruise_id, joined_at FROM cruise_members WHERE user_id = ? AND cruise_id = ?`,
			userID, cruiseID)
		if err != nil {
			return nil, wrapError(err)
		}
		return &m, nil
	})
}

// ListCruisesByUser returns the cruises a user joined, soonest departure first.
func (r *Repository) ListCruisesByUser(ctx context.Context, userID int64) ([]models.Cruise, error) {
	return doValue(ctx, r, func(ctx context.Context) ([]models.Cruise, error) {
		cruises := []models.Cruise{}
		err := r.db.SelectContext(ctx, &cruises,
			`SELECT c.id, c.departure_date, c.ship_id, s.name AS ship_name, c.created_at
			FROM cruises c
			JOIN cruise_members m ON m.cruise_id = c.id
			JOIN ships s ON s.id = c.ship_id
			WHERE m.user_id = ?
			ORDER BY c.departure_date, c.id`, userID)
		if err != nil {
			return nil, err
		}
		return cruises, nil
	})
}

// ListCruiseMembers returns the public profiles of a cruise's members,
// leaving out excludeUserID.
func (r *Repository) ListCruiseMembers(ctx context.Context, cruiseID, excludeUserID int64) ([]models.PublicProfile, error) {
	return doValue(ctx, r, func(ctx context.Context) ([]models.PublicProfile, error) {
		profiles := []models.PublicProfile{}
		err := r.db.SelectContext(ctx, &profiles,
			`SELECT a.id, a.first_name, a.last_name, a.birth_date, a.bio,
				a.instagram, a.snapchat, a.tiktok, a.twitter, a.facebook
			FROM accounts a JOIN cruise_members m ON m.user_id = a.id
			WHERE m.cruise_id = ? AND a.id != ?
			ORDER BY m.joined_at, a.id`, cruiseID, excludeUserID)
		if err != nil {
			return nil, err
		}
		return profiles, nil
	})
}

// DeleteMembershipsByUser removes every membership of a user.
func (r *Repository) DeleteMembershipsByUser(ctx context.Context, userID int64) error {
	return r.do(ctx, func(ctx context.Context) error {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM cruise_members WHERE user_id = ?`, userID); err != nil {
			return fmt.Errorf("failed to delete memberships: %w", err)
		}
		return nil
	})
}

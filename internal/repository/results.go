package repository

import (
	"context"
	"database/sql"

	"github.com/selfire1/gridtip-sub000/internal/models"
)

// ==================== Result Methods ====================

// SaveResult replaces the stored classification of a race
func (r *Repository) SaveResult(ctx context.Context, result models.RaceResult) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM result_positions WHERE race_id = ?`, result.RaceID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM constructor_points WHERE race_id = ?`, result.RaceID); err != nil {
		return err
	}

	sessions := []struct {
		name      models.Session
		positions map[int]string
	}{
		{models.SessionQualifying, result.Qualifying},
		{models.SessionGrandPrix, result.GrandPrix},
		{models.SessionSprint, result.Sprint},
	}

	posStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO result_positions (race_id, session, position, driver_id) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer posStmt.Close()

	for _, s := range sessions {
		for pos, driverID := range s.positions {
			if _, err := posStmt.ExecContext(ctx, result.RaceID, string(s.name), pos, driverID); err != nil {
				return err
			}
		}
	}

	pointsStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO constructor_points (race_id, constructor_id, points) VALUES (?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer pointsStmt.Close()

	for constructorID, points := range result.ConstructorPoints {
		if _, err := pointsStmt.ExecContext(ctx, result.RaceID, constructorID, points); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetResults returns every stored result of a season keyed by race id.
// Races without any stored positions are absent from the map.
func (r *Repository) GetResults(ctx context.Context, season int) (map[int]models.RaceResult, error) {
	results := make(map[int]models.RaceResult)
	get := func(raceID int) models.RaceResult {
		res, ok := results[raceID]
		if !ok {
			res = models.NewRaceResult(raceID)
			results[raceID] = res
		}
		return res
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT rp.race_id, rp.session, rp.position, rp.driver_id
		FROM result_positions rp
		JOIN races ra ON ra.id = rp.race_id
		WHERE ra.season = ?
	`, season)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var raceID, position int
		var session, driverID string
		if err := rows.Scan(&raceID, &session, &position, &driverID); err != nil {
			return nil, err
		}
		res := get(raceID)
		switch models.Session(session) {
		case models.SessionQualifying:
			res.Qualifying[position] = driverID
		case models.SessionGrandPrix:
			res.GrandPrix[position] = driverID
		case models.SessionSprint:
			res.Sprint[position] = driverID
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadConstructorPoints(ctx, season, results); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Repository) loadConstructorPoints(ctx context.Context, season int, results map[int]models.RaceResult) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT cp.race_id, cp.constructor_id, cp.points
		FROM constructor_points cp
		JOIN races ra ON ra.id = cp.race_id
		WHERE ra.season = ?
	`, season)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var raceID int
		var constructorID string
		var points sql.NullFloat64
		if err := rows.Scan(&raceID, &constructorID, &points); err != nil {
			return err
		}
		res, ok := results[raceID]
		if !ok {
			// points without a classification do not make a result
			continue
		}
		res.ConstructorPoints[constructorID] = points.Float64
	}
	return rows.Err()
}
